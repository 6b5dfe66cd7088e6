package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/techrealm/programdex/internal/domain"
	domchat "github.com/techrealm/programdex/internal/domain/chat"
	"github.com/techrealm/programdex/internal/domain/search/result"
	"github.com/techrealm/programdex/internal/logger"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

// MaxMessageLength bounds a single user message.
const MaxMessageLength = 4096

// Service manages chat sessions.
type Service struct {
	repo   Repository
	engine Responder
	now    func() time.Time
	newID  func() string
}

// New creates a chat service.
func New(repo Repository, engine Responder) *Service {
	return &Service{repo: repo, engine: engine, now: time.Now, newID: uuid.NewString}
}

// Create starts an empty session. An empty userID becomes anonymous.
func (s *Service) Create(ctx context.Context, userID string) (domchat.Session, error) {
	sess, err := domchat.New(s.newID(), userID, s.now().UTC())
	if err != nil {
		return domchat.Session{}, fmt.Errorf("new chat: %w", err)
	}
	if err := s.repo.Save(ctx, &sess); err != nil {
		return domchat.Session{}, fmt.Errorf("save chat: %w", err)
	}
	return sess, nil
}

// Send appends the user's message, answers it and appends the reply.
// Returns the assistant turn.
func (s *Service) Send(ctx context.Context, chatID, message string) (domchat.Turn, error) {
	if err := validateMessage(message); err != nil {
		return domchat.Turn{}, err
	}

	sess, err := s.repo.Get(ctx, chatID)
	if err != nil {
		return domchat.Turn{}, fmt.Errorf("get chat: %w", err)
	}

	if err := sess.Append(domchat.Turn{
		Role:      domchat.RoleUser,
		Content:   message,
		Timestamp: s.now().UTC(),
	}); err != nil {
		return domchat.Turn{}, fmt.Errorf("append message: %w", err)
	}

	ctx = logger.With(ctx, zap.String("chat_id", chatID))
	reply, err := s.engine.Chat(ctx, message, sess.Turns())
	if err != nil {
		return domchat.Turn{}, fmt.Errorf("chat: %w", err)
	}

	answer := domchat.Turn{
		Role:      domchat.RoleAssistant,
		Content:   reply.Text,
		Programs:  result.Programs(reply.Results),
		Timestamp: s.now().UTC(),
	}
	if err := sess.Append(answer); err != nil {
		return domchat.Turn{}, fmt.Errorf("append reply: %w", err)
	}

	if err := s.repo.Save(ctx, &sess); err != nil {
		return domchat.Turn{}, fmt.Errorf("save chat: %w", err)
	}
	return answer, nil
}

// QuickAsk answers a one-off message without a session.
func (s *Service) QuickAsk(ctx context.Context, message string) (retrieval.Reply, error) {
	if err := validateMessage(message); err != nil {
		return retrieval.Reply{}, err
	}
	reply, err := s.engine.Chat(ctx, message, nil)
	if err != nil {
		return retrieval.Reply{}, fmt.Errorf("chat: %w", err)
	}
	return reply, nil
}

// Get returns a session.
func (s *Service) Get(ctx context.Context, chatID string) (domchat.Session, error) {
	sess, err := s.repo.Get(ctx, chatID)
	if err != nil {
		return domchat.Session{}, fmt.Errorf("get chat: %w", err)
	}
	return sess, nil
}

// List returns sessions for userID, or all sessions when it is empty.
func (s *Service) List(ctx context.Context, userID string) ([]domchat.Session, error) {
	sessions, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return sessions, nil
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, chatID string) error {
	if err := s.repo.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

func validateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return domain.NewValidationError("message", "is required")
	}
	if len(message) > MaxMessageLength {
		return domain.NewValidationError("message", fmt.Sprintf("exceeds %d characters", MaxMessageLength))
	}
	return nil
}
