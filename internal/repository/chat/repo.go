package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/techrealm/programdex/internal/db"
	"github.com/techrealm/programdex/internal/domain"
	domchat "github.com/techrealm/programdex/internal/domain/chat"
)

const keyPrefix = "programdex:chat:"

// store is the consumer interface for chat sessions (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores each session as one JSON value.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a chat repository. A zero ttl keeps sessions forever; otherwise
// every save refreshes the expiry.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

func chatKey(id string) string {
	return keyPrefix + id
}

// Save writes the whole session.
func (r *Repo) Save(ctx context.Context, s *domchat.Session) error {
	key := chatKey(s.ID())
	data, err := json.Marshal(toDTO(s))
	if err != nil {
		return fmt.Errorf("marshal chat: %w", err)
	}

	if r.ttl > 0 {
		err = r.store.SetWithTTL(ctx, key, data, r.ttl)
	} else {
		err = r.store.Set(ctx, key, data)
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns a session by id.
func (r *Repo) Get(ctx context.Context, id string) (domchat.Session, error) {
	key := chatKey(id)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domchat.Session{}, domain.ErrChatNotFound
		}
		return domchat.Session{}, fmt.Errorf("get %s: %w", key, err)
	}

	var dto sessionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domchat.Session{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return fromDTO(&dto), nil
}

// Delete removes a session.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := chatKey(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrChatNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// List returns sessions owned by userID, most recently updated first.
// An empty userID lists every session.
func (r *Repo) List(ctx context.Context, userID string) ([]domchat.Session, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan chats: %w", err)
	}

	out := make([]domchat.Session, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			// Expired or deleted after SCAN.
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		var dto sessionDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		if userID != "" && dto.UserID != userID {
			continue
		}
		out = append(out, fromDTO(&dto))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt().Equal(out[j].UpdatedAt()) {
			return out[i].UpdatedAt().After(out[j].UpdatedAt())
		}
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}
