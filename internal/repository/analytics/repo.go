package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	domanalytics "github.com/techrealm/programdex/internal/domain/analytics"
)

// Each event is one hash: programdex:analytics:event:{event_id}
const keyPrefix = "programdex:analytics:event:"

const (
	fieldID        = "event_id"
	fieldProjectID = "project_id"
	fieldEventType = "event_type"
	fieldUserID    = "user_id"
	fieldTimestamp = "timestamp"
)

// store is the consumer interface for analytics events (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo keeps the event log in Redis hashes.
type Repo struct {
	store     store
	retention time.Duration
}

// New creates an analytics repository. A zero retention keeps events forever.
func New(s store, retention time.Duration) *Repo {
	return &Repo{store: s, retention: retention}
}

// Append stores an event.
func (r *Repo) Append(ctx context.Context, e *domanalytics.Event) error {
	key := keyPrefix + e.ID
	fields := map[string]string{
		fieldID:        e.ID,
		fieldProjectID: e.ProjectID,
		fieldEventType: e.EventType,
		fieldUserID:    e.UserID,
		fieldTimestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	if r.retention > 0 {
		if err := r.store.Expire(ctx, key, r.retention, false); err != nil {
			return fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return nil
}

// All returns every stored event, oldest first.
func (r *Repo) All(ctx context.Context) ([]domanalytics.Event, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	if len(keys) == 0 {
		return []domanalytics.Event{}, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	out := make([]domanalytics.Event, 0, len(hashes))
	for i, m := range hashes {
		// Expired between SCAN and HGETALL.
		if len(m) == 0 {
			continue
		}
		e := domanalytics.Event{
			ID:        m[fieldID],
			ProjectID: m[fieldProjectID],
			EventType: m[fieldEventType],
			UserID:    m[fieldUserID],
		}
		if e.ID == "" {
			e.ID = strings.TrimPrefix(keys[i], keyPrefix)
		}
		if ts, err := time.Parse(time.RFC3339Nano, m[fieldTimestamp]); err == nil {
			e.Timestamp = ts
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Clear deletes every event and returns how many were removed.
func (r *Repo) Clear(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan events: %w", err)
	}
	for i, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return i, fmt.Errorf("del %s: %w", key, err)
		}
	}
	return len(keys), nil
}
