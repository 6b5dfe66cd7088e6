package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/techrealm/programdex/internal/db"
	domapp "github.com/techrealm/programdex/internal/domain/application"
)

const keyPrefix = "programdex:application:"

// store is the consumer interface for applications (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

type applicationDTO struct {
	ID          string    `json:"application_id"`
	ProgramID   string    `json:"program_id"`
	ProgramName string    `json:"program_name"`
	UserEmail   string    `json:"user_email"`
	AppliedAt   time.Time `json:"applied_at"`
}

// Repo stores each application as one JSON value.
type Repo struct {
	store store
}

// New creates an application repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save records an application.
func (r *Repo) Save(ctx context.Context, a *domapp.Application) error {
	key := keyPrefix + a.ID
	data, err := json.Marshal(applicationDTO(*a))
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// List returns every application, oldest first.
func (r *Repo) List(ctx context.Context) ([]domapp.Application, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan applications: %w", err)
	}

	out := make([]domapp.Application, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		var dto applicationDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		out = append(out, domapp.Application(dto))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].AppliedAt.Before(out[j].AppliedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
