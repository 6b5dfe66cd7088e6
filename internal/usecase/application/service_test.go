package application

import (
	"context"
	"errors"
	"testing"

	"github.com/techrealm/programdex/internal/domain"
	domapp "github.com/techrealm/programdex/internal/domain/application"
)

type mockRepo struct {
	saved []domapp.Application
	err   error
}

func (m *mockRepo) Save(_ context.Context, a *domapp.Application) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, *a)
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]domapp.Application, error) {
	return m.saved, m.err
}

func TestApply(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	a, err := svc.Apply(context.Background(), "p1", "Data Science", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == "" || a.UserEmail != domapp.AnonymousEmail || a.AppliedAt.IsZero() {
		t.Errorf("application = %+v", a)
	}
	if len(repo.saved) != 1 {
		t.Errorf("saved %d applications", len(repo.saved))
	}
}

func TestApply_MissingProgram(t *testing.T) {
	svc := New(&mockRepo{})
	_, err := svc.Apply(context.Background(), "", "Data Science", "x@example.com")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestApply_SaveError(t *testing.T) {
	svc := New(&mockRepo{err: errors.New("down")})
	if _, err := svc.Apply(context.Background(), "p1", "n", ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestList(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)
	_, _ = svc.Apply(context.Background(), "p1", "a", "")
	_, _ = svc.Apply(context.Background(), "p2", "b", "")

	got, err := svc.List(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("list = %v, %v", got, err)
	}
}
