package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/techrealm/programdex/internal/domain"
	domchat "github.com/techrealm/programdex/internal/domain/chat"
	domprog "github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/domain/search/result"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

// --- Mocks ---

type mockRepo struct {
	sessions map[string]domchat.Session
	saveErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{sessions: map[string]domchat.Session{}}
}

func (m *mockRepo) Save(_ context.Context, s *domchat.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[s.ID()] = *s
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (domchat.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return domchat.Session{}, domain.ErrChatNotFound
	}
	return s, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrChatNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, userID string) ([]domchat.Session, error) {
	var out []domchat.Session
	for _, s := range m.sessions {
		if userID == "" || s.UserID() == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockEngine struct {
	reply       retrieval.Reply
	err         error
	lastHistory []domchat.Turn
	calls       int
}

func (m *mockEngine) Chat(_ context.Context, _ string, history []domchat.Turn) (retrieval.Reply, error) {
	m.calls++
	m.lastHistory = history
	return m.reply, m.err
}

func newTestService(repo *mockRepo, eng *mockEngine) *Service {
	s := New(repo, eng)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	n := 0
	s.newID = func() string {
		n++
		return "chat-" + string(rune('0'+n))
	}
	return s
}

// --- Tests ---

func TestCreate(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockEngine{})

	sess, err := svc.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ID() != "chat-1" || sess.UserID() != domchat.AnonymousUser {
		t.Errorf("session = %s/%s", sess.ID(), sess.UserID())
	}
	if _, ok := repo.sessions["chat-1"]; !ok {
		t.Error("session not saved")
	}
}

func TestSend_AppendsBothTurns(t *testing.T) {
	repo := newMockRepo()
	p := domprog.Program{ID: "p1", Name: "Data Science"}
	eng := &mockEngine{reply: retrieval.Reply{
		Text:    "I found 1 relevant programs",
		Results: []result.Result{result.New(p, 0.8)},
	}}
	svc := newTestService(repo, eng)
	sess, _ := svc.Create(context.Background(), "u1")

	turn, err := svc.Send(context.Background(), sess.ID(), "data science")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turn.Role != domchat.RoleAssistant || turn.Content != "I found 1 relevant programs" {
		t.Errorf("turn = %+v", turn)
	}
	if len(turn.Programs) != 1 || turn.Programs[0].ID != "p1" {
		t.Errorf("programs = %+v", turn.Programs)
	}

	stored := repo.sessions[sess.ID()]
	if len(stored.Turns()) != 2 {
		t.Fatalf("stored turns = %d", len(stored.Turns()))
	}
	if stored.Turns()[0].Role != domchat.RoleUser || stored.Turns()[0].Content != "data science" {
		t.Errorf("first turn = %+v", stored.Turns()[0])
	}
	if len(eng.lastHistory) != 1 {
		t.Errorf("history passed = %d turns, want 1", len(eng.lastHistory))
	}
}

func TestSend_Errors(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockEngine{})
	ctx := context.Background()

	if _, err := svc.Send(ctx, "missing", "hello"); !errors.Is(err, domain.ErrChatNotFound) {
		t.Errorf("expected ErrChatNotFound, got %v", err)
	}

	sess, _ := svc.Create(ctx, "")
	for _, msg := range []string{"", "   ", strings.Repeat("x", MaxMessageLength+1)} {
		if _, err := svc.Send(ctx, sess.ID(), msg); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("message len %d: expected ErrInvalidArgument, got %v", len(msg), err)
		}
	}
}

func TestSend_EngineErrorNotSaved(t *testing.T) {
	repo := newMockRepo()
	eng := &mockEngine{err: domain.ErrInvalidArgument}
	svc := newTestService(repo, eng)
	sess, _ := svc.Create(context.Background(), "")

	if _, err := svc.Send(context.Background(), sess.ID(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	stored := repo.sessions[sess.ID()]
	if n := len(stored.Turns()); n != 0 {
		t.Errorf("stored turns = %d, want 0", n)
	}
}

func TestQuickAsk(t *testing.T) {
	eng := &mockEngine{reply: retrieval.Reply{Text: "answer"}}
	svc := newTestService(newMockRepo(), eng)

	reply, err := svc.QuickAsk(context.Background(), "nursing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != "answer" || eng.lastHistory != nil {
		t.Errorf("reply=%+v history=%v", reply, eng.lastHistory)
	}
	if _, err := svc.QuickAsk(context.Background(), ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestListDelete(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockEngine{})
	ctx := context.Background()
	a, _ := svc.Create(ctx, "u1")
	_, _ = svc.Create(ctx, "u2")

	got, err := svc.List(ctx, "u1")
	if err != nil || len(got) != 1 || got[0].ID() != a.ID() {
		t.Fatalf("list = %v, %v", got, err)
	}

	if err := svc.Delete(ctx, a.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, a.ID()); !errors.Is(err, domain.ErrChatNotFound) {
		t.Errorf("expected ErrChatNotFound, got %v", err)
	}
}
