package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/techrealm/programdex/internal/domain"
	domapp "github.com/techrealm/programdex/internal/domain/application"
)

// Repository defines the storage contract for applications.
type Repository interface {
	Save(ctx context.Context, a *domapp.Application) error
	List(ctx context.Context) ([]domapp.Application, error)
}

// Service records program applications.
type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

// New creates an application service.
func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now, newID: uuid.NewString}
}

// Apply records that a user applied to a program.
func (s *Service) Apply(ctx context.Context, programID, programName, userEmail string) (domapp.Application, error) {
	a, err := domapp.New(s.newID(), programID, programName, userEmail, s.now().UTC())
	if err != nil {
		return domapp.Application{}, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	if err := s.repo.Save(ctx, &a); err != nil {
		return domapp.Application{}, fmt.Errorf("save application: %w", err)
	}
	return a, nil
}

// List returns every application, oldest first.
func (s *Service) List(ctx context.Context) ([]domapp.Application, error) {
	apps, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}
