package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/techrealm/programdex/internal/domain"
	domanalytics "github.com/techrealm/programdex/internal/domain/analytics"
)

type mockRepo struct {
	events   []domanalytics.Event
	cleared  int
	err      error
	clearErr error
}

func (m *mockRepo) Append(_ context.Context, e *domanalytics.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *mockRepo) All(_ context.Context) ([]domanalytics.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]domanalytics.Event(nil), m.events...), nil
}

func (m *mockRepo) Clear(_ context.Context) (int, error) {
	if m.clearErr != nil {
		return 0, m.clearErr
	}
	n := len(m.events)
	m.events = nil
	m.cleared += n
	return n, nil
}

var t0 = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	s := New(repo)
	n := 0
	s.now = func() time.Time { n++; return t0.Add(time.Duration(n) * time.Minute) }
	s.newID = func() string { return "ev-" + string(rune('a'+n)) }
	return s
}

func seed(t *testing.T, s *Service, rows ...[3]string) {
	t.Helper()
	for _, r := range rows {
		if _, err := s.Log(context.Background(), r[0], r[1], r[2]); err != nil {
			t.Fatalf("log %v: %v", r, err)
		}
	}
}

func TestLog_StoresUserAndTimestamp(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	e, err := svc.Log(context.Background(), "web", "view", "user-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.events) != 1 {
		t.Fatalf("stored %d events", len(repo.events))
	}
	stored := repo.events[0]
	if stored.UserID != "user-7" || stored.ID != e.ID || stored.ID == "" {
		t.Errorf("stored = %+v", stored)
	}
	if stored.Timestamp.IsZero() || stored.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp = %v", stored.Timestamp)
	}
}

func TestLog_AnonymousDefault(t *testing.T) {
	repo := &mockRepo{}
	e, err := newTestService(repo).Log(context.Background(), "web", "view", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.UserID != domanalytics.AnonymousUser || repo.events[0].UserID != domanalytics.AnonymousUser {
		t.Errorf("user = %q", e.UserID)
	}
}

func TestLog_InvalidLabel(t *testing.T) {
	_, err := newTestService(&mockRepo{}).Log(context.Background(), "bad key", "view", "")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestEvents_Filter(t *testing.T) {
	svc := newTestService(&mockRepo{})
	seed(t, svc, [3]string{"web", "view", "u1"}, [3]string{"web", "click", "u2"}, [3]string{"app", "click", "u1"})

	got, err := svc.Events(context.Background(), domanalytics.Filter{EventType: "click", UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ProjectID != "app" {
		t.Errorf("events = %+v", got)
	}
}

func TestSummary(t *testing.T) {
	svc := newTestService(&mockRepo{})
	seed(t, svc, [3]string{"web", "view", ""}, [3]string{"web", "click", ""}, [3]string{"app", "view", ""})

	sum, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Total != 3 || sum.ByEventType["view"] != 2 || sum.ByDate["2025-03-14"] != 3 {
		t.Errorf("summary = %+v", sum)
	}
	if len(sum.TopProjects) != 2 || sum.TopProjects[0].ProjectID != "web" {
		t.Errorf("top = %+v", sum.TopProjects)
	}
}

func TestSummary_Error(t *testing.T) {
	if _, err := newTestService(&mockRepo{err: errors.New("down")}).Summary(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestProject(t *testing.T) {
	svc := newTestService(&mockRepo{})
	seed(t, svc, [3]string{"web", "view", "u1"}, [3]string{"web", "view", "u2"}, [3]string{"app", "view", "u1"})

	a, err := svc.Project(context.Background(), "web")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Total != 2 || a.Breakdown["view"] != 2 || len(a.Events) != 2 {
		t.Errorf("activity = %+v", a)
	}
}

func TestProject_InvalidID(t *testing.T) {
	_, err := newTestService(&mockRepo{}).Project(context.Background(), "a:b")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestUser(t *testing.T) {
	svc := newTestService(&mockRepo{})
	seed(t, svc,
		[3]string{"web", "view", "u1"},
		[3]string{"web", "click", "u1"},
		[3]string{"app", "view", "u1"},
		[3]string{"app", "view", "u2"},
	)

	a, err := svc.User(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Total != 3 || a.Projects != 2 || a.Breakdown["click"] != 1 {
		t.Errorf("activity = %+v", a)
	}
	for _, e := range a.Events {
		if e.UserID != "u1" {
			t.Errorf("foreign event %+v", e)
		}
	}
}

func TestUser_Unknown(t *testing.T) {
	a, err := newTestService(&mockRepo{}).User(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Total != 0 || len(a.Events) != 0 {
		t.Errorf("activity = %+v", a)
	}
}

func TestUser_Empty(t *testing.T) {
	_, err := newTestService(&mockRepo{}).User(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestClear(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)
	seed(t, svc, [3]string{"web", "view", ""}, [3]string{"web", "view", ""})

	n, err := svc.Clear(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || len(repo.events) != 0 {
		t.Errorf("cleared %d, left %d", n, len(repo.events))
	}
}

func TestClear_Error(t *testing.T) {
	if _, err := newTestService(&mockRepo{clearErr: errors.New("readonly")}).Clear(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
