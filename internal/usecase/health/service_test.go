package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockResponderChecker struct {
	err      error
	deadline bool
}

func (m *mockResponderChecker) HealthCheck(ctx context.Context) error {
	_, m.deadline = ctx.Deadline()
	return m.err
}

type mockCorpus struct {
	stats retrieval.Stats
}

func (m *mockCorpus) Stats() retrieval.Stats { return m.stats }

func fitted(n int) *mockCorpus {
	return &mockCorpus{stats: retrieval.Stats{Programs: n, Vocabulary: 10 * n, FittedAt: time.Now()}}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		db        error
		responder ResponderChecker
		want      Status
		checks    map[string]CheckResult
	}{
		{
			name:      "all healthy",
			responder: &mockResponderChecker{},
			want:      Healthy,
			checks:    map[string]CheckResult{"database": CheckOK, "responder": CheckOK, "corpus": CheckOK},
		},
		{
			name:   "summary responder only",
			want:   Healthy,
			checks: map[string]CheckResult{"database": CheckOK, "corpus": CheckOK},
		},
		{
			name:      "responder down degrades",
			responder: &mockResponderChecker{err: errors.New("timeout")},
			want:      Degraded,
			checks:    map[string]CheckResult{"database": CheckOK, "responder": CheckError},
		},
		{
			name:      "database down is unhealthy",
			db:        errors.New("conn refused"),
			responder: &mockResponderChecker{},
			want:      Unhealthy,
			checks:    map[string]CheckResult{"database": CheckError, "responder": CheckOK},
		},
		{
			name:      "both down stays unhealthy",
			db:        errors.New("conn refused"),
			responder: &mockResponderChecker{err: errors.New("401")},
			want:      Unhealthy,
			checks:    map[string]CheckResult{"database": CheckError, "responder": CheckError},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&mockDBPinger{err: tt.db}, tt.responder, fitted(3)).Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("status = %q, want %q", r.Status, tt.want)
			}
			for k, v := range tt.checks {
				if r.Checks[k] != v {
					t.Errorf("checks[%s] = %q, want %q", k, r.Checks[k], v)
				}
			}
			if tt.responder == nil {
				if _, ok := r.Checks["responder"]; ok {
					t.Error("responder check should be absent")
				}
			}
		})
	}
}

func TestCheck_EmptyCorpusIsInformational(t *testing.T) {
	r := New(&mockDBPinger{}, nil, &mockCorpus{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("status = %q, want %q", r.Status, Healthy)
	}
	if r.Checks["corpus"] != CheckEmpty {
		t.Errorf("corpus = %q, want %q", r.Checks["corpus"], CheckEmpty)
	}
}

func TestCheck_ReportsCorpus(t *testing.T) {
	r := New(&mockDBPinger{}, nil, fitted(12)).Check(context.Background())

	if r.Corpus.Programs != 12 || r.Corpus.Vocabulary != 120 {
		t.Errorf("corpus = %+v", r.Corpus)
	}
}

func TestCheck_CallsAreBounded(t *testing.T) {
	rc := &mockResponderChecker{}
	New(&mockDBPinger{}, rc, fitted(1)).Check(context.Background())

	if !rc.deadline {
		t.Error("check context should carry a deadline")
	}
}
