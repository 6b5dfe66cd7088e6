package chat

import (
	"context"

	domchat "github.com/techrealm/programdex/internal/domain/chat"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

// Repository defines the storage contract for chat sessions.
type Repository interface {
	Save(ctx context.Context, s *domchat.Session) error
	Get(ctx context.Context, id string) (domchat.Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, userID string) ([]domchat.Session, error)
}

// Responder answers a message from the retrieval model.
type Responder interface {
	Chat(ctx context.Context, message string, history []domchat.Turn) (retrieval.Reply, error)
}
