package chat

import (
	"fmt"
	"time"

	"github.com/techrealm/programdex/internal/domain/program"
)

// AnonymousUser owns sessions created without a user id.
const AnonymousUser = "anonymous"

// Role identifies the author of a turn.
type Role string

const (
	// RoleUser is a message typed by the user.
	RoleUser Role = "user"
	// RoleAssistant is a generated reply.
	RoleAssistant Role = "assistant"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message in a session.
type Turn struct {
	Role      Role
	Content   string
	Programs  []program.Program
	Timestamp time.Time
}

// Session is an append-only conversation owned by a chat id.
type Session struct {
	id        string
	userID    string
	turns     []Turn
	createdAt time.Time
	updatedAt time.Time
}

// New creates an empty session.
func New(id, userID string, now time.Time) (Session, error) {
	if id == "" {
		return Session{}, fmt.Errorf("chat ID is required")
	}
	if userID == "" {
		userID = AnonymousUser
	}
	return Session{id: id, userID: userID, createdAt: now, updatedAt: now}, nil
}

// Reconstruct creates a Session without validation (storage hydration).
func Reconstruct(id, userID string, turns []Turn, createdAt, updatedAt time.Time) Session {
	return Session{id: id, userID: userID, turns: turns, createdAt: createdAt, updatedAt: updatedAt}
}

// ID returns the chat identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the owner.
func (s *Session) UserID() string { return s.userID }

// Turns returns the conversation in order.
func (s *Session) Turns() []Turn { return s.turns }

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the time of the last append.
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// Append adds a turn and bumps UpdatedAt to the turn's timestamp.
func (s *Session) Append(t Turn) error {
	if !t.Role.IsValid() {
		return fmt.Errorf("invalid role %q", t.Role)
	}
	s.turns = append(s.turns, t)
	s.updatedAt = t.Timestamp
	return nil
}
