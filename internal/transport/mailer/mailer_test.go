package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domemail "github.com/techrealm/programdex/internal/domain/email"
	"github.com/techrealm/programdex/internal/metrics"
)

var msg = domemail.Message{To: "ada@example.com", Subject: "Hello", HTML: "<p>hi</p>"}

func TestMock_Send(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewMock(zap.New(core))
	m.newID = func() string { return "1234" }
	before := testutil.ToFloat64(metrics.EmailDeliveriesTotal.WithLabelValues("mock", "sent"))

	r, err := m.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.MessageID != "mock-1234" || !r.Mock {
		t.Errorf("receipt = %+v", r)
	}
	entries := logs.FilterMessage("Mock email sent").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["to"]; got != msg.To {
		t.Errorf("logged to = %v", got)
	}
	if got := testutil.ToFloat64(metrics.EmailDeliveriesTotal.WithLabelValues("mock", "sent")); got != before+1 {
		t.Errorf("email_deliveries_total{mock,sent} = %v, want %v", got, before+1)
	}
}

func TestMock_UniqueIDs(t *testing.T) {
	m := NewMock(nil)
	a, _ := m.Send(context.Background(), msg)
	b, _ := m.Send(context.Background(), msg)
	if a.MessageID == b.MessageID || !strings.HasPrefix(a.MessageID, MockPrefix) {
		t.Errorf("ids %q %q", a.MessageID, b.MessageID)
	}
}

func TestBrevo_Send(t *testing.T) {
	var got brevoRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v3/smtp/email" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("api-key") != "test-key" {
			t.Errorf("api-key = %q", r.Header.Get("api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"messageId":"<abc@smtp-relay.brevo.com>"}`)
	}))
	defer server.Close()

	b := NewBrevo(BrevoConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL + "/v3/",
		FromEmail: "noreply@techrealm.com",
		FromName:  "TechRealm",
	})
	r, err := b.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.MessageID != "<abc@smtp-relay.brevo.com>" || r.Mock {
		t.Errorf("receipt = %+v", r)
	}
	if got.Sender.Email != "noreply@techrealm.com" || got.Sender.Name != "TechRealm" {
		t.Errorf("sender = %+v", got.Sender)
	}
	if len(got.To) != 1 || got.To[0].Email != msg.To || got.Subject != msg.Subject || got.HTMLContent != msg.HTML {
		t.Errorf("request = %+v", got)
	}
}

func TestBrevo_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":"unauthorized","message":"Key not found"}`)
	}))
	defer server.Close()

	before := testutil.ToFloat64(metrics.EmailDeliveriesTotal.WithLabelValues("brevo", "failed"))
	_, err := NewBrevo(BrevoConfig{APIKey: "bad", BaseURL: server.URL}).Send(context.Background(), msg)
	if err == nil || !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Key not found") {
		t.Errorf("err = %v", err)
	}
	if got := testutil.ToFloat64(metrics.EmailDeliveriesTotal.WithLabelValues("brevo", "failed")); got != before+1 {
		t.Errorf("email_deliveries_total{brevo,failed} = %v, want %v", got, before+1)
	}
}

func TestBrevo_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	if _, err := NewBrevo(BrevoConfig{BaseURL: url}).Send(context.Background(), msg); err == nil {
		t.Error("expected error")
	}
}
