package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/techrealm/programdex/internal/domain"
	domanalytics "github.com/techrealm/programdex/internal/domain/analytics"
)

// Repository stores the event log.
type Repository interface {
	Append(ctx context.Context, e *domanalytics.Event) error
	All(ctx context.Context) ([]domanalytics.Event, error)
	Clear(ctx context.Context) (int, error)
}

// Service records interaction events and reports on them.
type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

// New creates an analytics service.
func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now, newID: uuid.NewString}
}

// Log validates and stores an event.
func (s *Service) Log(ctx context.Context, projectID, eventType, userID string) (domanalytics.Event, error) {
	e, err := domanalytics.New(s.newID(), projectID, eventType, userID, s.now().UTC())
	if err != nil {
		return domanalytics.Event{}, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	if err := s.repo.Append(ctx, &e); err != nil {
		return domanalytics.Event{}, fmt.Errorf("record event: %w", err)
	}
	return e, nil
}

// Events returns the stored events that pass f, oldest first.
func (s *Service) Events(ctx context.Context, f domanalytics.Filter) ([]domanalytics.Event, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return f.Apply(all), nil
}

// Summary aggregates every stored event.
func (s *Service) Summary(ctx context.Context) (domanalytics.Summary, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return domanalytics.Summary{}, fmt.Errorf("analytics summary: %w", err)
	}
	return domanalytics.Summarize(all), nil
}

// Project returns the activity recorded for one project.
func (s *Service) Project(ctx context.Context, projectID string) (domanalytics.Activity, error) {
	if err := domanalytics.ValidateLabel("project_id", projectID); err != nil {
		return domanalytics.Activity{}, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	events, err := s.Events(ctx, domanalytics.Filter{ProjectID: projectID})
	if err != nil {
		return domanalytics.Activity{}, fmt.Errorf("project analytics: %w", err)
	}
	return domanalytics.ActivityOf(events), nil
}

// User returns the activity recorded for one user.
func (s *Service) User(ctx context.Context, userID string) (domanalytics.Activity, error) {
	if userID == "" {
		return domanalytics.Activity{}, domain.NewValidationError("user_id", "is required")
	}
	events, err := s.Events(ctx, domanalytics.Filter{UserID: userID})
	if err != nil {
		return domanalytics.Activity{}, fmt.Errorf("user analytics: %w", err)
	}
	return domanalytics.ActivityOf(events), nil
}

// Clear deletes the whole event log and returns how many events were removed.
func (s *Service) Clear(ctx context.Context) (int, error) {
	n, err := s.repo.Clear(ctx)
	if err != nil {
		return n, fmt.Errorf("clear analytics: %w", err)
	}
	return n, nil
}
