package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/techrealm/programdex/internal/domain"
	domemail "github.com/techrealm/programdex/internal/domain/email"
	"github.com/techrealm/programdex/internal/logger"
)

// Sender hands a message to an email provider.
type Sender interface {
	Send(ctx context.Context, msg domemail.Message) (domemail.Receipt, error)
}

// Repository stores the delivery log.
type Repository interface {
	Save(ctx context.Context, rec *domemail.Record) error
	Get(ctx context.Context, id string) (domemail.Record, error)
	All(ctx context.Context) ([]domemail.Record, error)
}

// Delivery is a logged send attempt.
type Delivery struct {
	Record domemail.Record
	Mock   bool
}

// Service sends email and keeps a log of every attempt.
type Service struct {
	repo   Repository
	sender Sender
	now    func() time.Time
	newID  func() string
}

// New creates an email service.
func New(repo Repository, sender Sender) *Service {
	return &Service{repo: repo, sender: sender, now: time.Now, newID: uuid.NewString}
}

// Send delivers a free-form message and logs the attempt. A provider failure
// is logged as StatusFailed and returned wrapped in domain.ErrDeliveryFailed
// together with the logged record.
func (s *Service) Send(ctx context.Context, to, subject, content, programID string) (Delivery, error) {
	msg, err := domemail.NewMessage(to, subject, content)
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	return s.deliver(ctx, msg, programID)
}

// SendApplication delivers an application confirmation and logs the attempt.
func (s *Service) SendApplication(ctx context.Context, to, programName, university, programID string) (Delivery, error) {
	msg, err := domemail.ApplicationConfirmation(to, programName, university)
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	return s.deliver(ctx, msg, programID)
}

// SendTest checks provider delivery. Test sends are not logged.
func (s *Service) SendTest(ctx context.Context, to string) (domemail.Receipt, error) {
	msg, err := domemail.TestMessage(to, s.now())
	if err != nil {
		return domemail.Receipt{}, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	receipt, err := s.sender.Send(ctx, msg)
	if err != nil {
		return domemail.Receipt{}, fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}
	return receipt, nil
}

func (s *Service) deliver(ctx context.Context, msg domemail.Message, programID string) (Delivery, error) {
	receipt, sendErr := s.sender.Send(ctx, msg)
	status := domemail.StatusSent
	if sendErr != nil {
		status = domemail.StatusFailed
		logger.FromContext(ctx).Warn("Email delivery failed",
			zap.String("to", msg.To), zap.String("program_id", programID), zap.Error(sendErr))
	}

	rec := domemail.NewRecord(s.newID(), programID, msg, status, receipt.MessageID, s.now().UTC())
	if err := s.repo.Save(ctx, &rec); err != nil {
		return Delivery{}, errors.Join(fmt.Errorf("log email: %w", err), sendErr)
	}

	d := Delivery{Record: rec, Mock: receipt.Mock}
	if sendErr != nil {
		return d, fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, sendErr)
	}
	return d, nil
}

// List returns logged emails that pass f, oldest first.
func (s *Service) List(ctx context.Context, f domemail.Filter) ([]domemail.Record, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load emails: %w", err)
	}
	return f.Apply(all), nil
}

// Get returns one logged email.
func (s *Service) Get(ctx context.Context, id string) (domemail.Record, error) {
	if id == "" {
		return domemail.Record{}, domain.NewValidationError("email_id", "is required")
	}
	return s.repo.Get(ctx, id)
}

// Stats aggregates the delivery log.
func (s *Service) Stats(ctx context.Context) (domemail.Stats, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return domemail.Stats{}, fmt.Errorf("email stats: %w", err)
	}
	return domemail.Summarize(all), nil
}
