package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	domemail "github.com/techrealm/programdex/internal/domain/email"
	"github.com/techrealm/programdex/internal/metrics"
	"github.com/techrealm/programdex/internal/version"
)

// Defaults for BrevoConfig.
const (
	DefaultBrevoURL     = "https://api.brevo.com/v3"
	DefaultBrevoTimeout = 10 * time.Second
)

const maxErrorBody = 4 << 10

// BrevoConfig holds the transactional email API settings.
type BrevoConfig struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Brevo sends email through the Brevo transactional API.
type Brevo struct {
	client   *http.Client
	endpoint string
	apiKey   string
	from     brevoContact
	logger   *zap.Logger
}

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type brevoResponse struct {
	MessageID string `json:"messageId"`
}

// NewBrevo creates a Brevo sender.
func NewBrevo(cfg BrevoConfig) *Brevo {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBrevoURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultBrevoTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Brevo{
		client:   &http.Client{Timeout: timeout},
		endpoint: base + "/smtp/email",
		apiKey:   cfg.APIKey,
		from:     brevoContact{Name: cfg.FromName, Email: cfg.FromEmail},
		logger:   logger,
	}
}

// Send posts msg to Brevo and returns its message id.
func (b *Brevo) Send(ctx context.Context, msg domemail.Message) (domemail.Receipt, error) {
	receipt, err := b.send(ctx, msg)
	if err != nil {
		metrics.EmailDeliveriesTotal.WithLabelValues("brevo", "failed").Inc()
		b.logger.Warn("Brevo send failed", zap.String("to", msg.To), zap.Error(err))
		return domemail.Receipt{}, err
	}
	metrics.EmailDeliveriesTotal.WithLabelValues("brevo", "sent").Inc()
	return receipt, nil
}

func (b *Brevo) send(ctx context.Context, msg domemail.Message) (domemail.Receipt, error) {
	body, err := json.Marshal(brevoRequest{
		Sender:      b.from,
		To:          []brevoContact{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
	if err != nil {
		return domemail.Receipt{}, fmt.Errorf("marshal brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return domemail.Receipt{}, fmt.Errorf("build brevo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return domemail.Receipt{}, fmt.Errorf("brevo request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domemail.Receipt{}, fmt.Errorf("brevo status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out brevoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domemail.Receipt{}, fmt.Errorf("decode brevo response: %w", err)
	}
	return domemail.Receipt{MessageID: out.MessageID}, nil
}
