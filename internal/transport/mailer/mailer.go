// Package mailer delivers email through Brevo or a logging mock.
package mailer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domemail "github.com/techrealm/programdex/internal/domain/email"
	"github.com/techrealm/programdex/internal/metrics"
)

// MockPrefix starts every message id issued by the mock sender.
const MockPrefix = "mock-"

// Mock logs messages instead of sending them.
type Mock struct {
	logger *zap.Logger
	newID  func() string
}

// NewMock creates a mock sender. A nil logger discards output.
func NewMock(logger *zap.Logger) *Mock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mock{logger: logger, newID: uuid.NewString}
}

// Send logs msg and returns a mock message id.
func (m *Mock) Send(_ context.Context, msg domemail.Message) (domemail.Receipt, error) {
	id := MockPrefix + m.newID()
	m.logger.Info("Mock email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("message_id", id),
	)
	metrics.EmailDeliveriesTotal.WithLabelValues("mock", "sent").Inc()
	return domemail.Receipt{MessageID: id, Mock: true}, nil
}
