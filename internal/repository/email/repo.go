package email

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/techrealm/programdex/internal/domain"
	domemail "github.com/techrealm/programdex/internal/domain/email"
)

// Each record is one hash: programdex:email:{email_id}
const keyPrefix = "programdex:email:"

const (
	fieldID        = "email_id"
	fieldProgramID = "program_id"
	fieldTo        = "to"
	fieldSubject   = "subject"
	fieldStatus    = "status"
	fieldMessageID = "message_id"
	fieldTimestamp = "timestamp"
)

// store is the consumer interface for the email log (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo keeps the email delivery log in Redis hashes.
type Repo struct {
	store store
}

// New creates an email log repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save stores a record, replacing any with the same id.
func (r *Repo) Save(ctx context.Context, rec *domemail.Record) error {
	key := keyPrefix + rec.ID
	if err := r.store.HSet(ctx, key, toHash(rec)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns one record.
func (r *Repo) Get(ctx context.Context, id string) (domemail.Record, error) {
	key := keyPrefix + id
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domemail.Record{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domemail.Record{}, domain.ErrEmailNotFound
	}
	return fromHash(key, m), nil
}

// All returns every record, oldest first.
func (r *Repo) All(ctx context.Context) ([]domemail.Record, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan emails: %w", err)
	}
	if len(keys) == 0 {
		return []domemail.Record{}, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load emails: %w", err)
	}

	out := make([]domemail.Record, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		out = append(out, fromHash(keys[i], m))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func toHash(rec *domemail.Record) map[string]string {
	return map[string]string{
		fieldID:        rec.ID,
		fieldProgramID: rec.ProgramID,
		fieldTo:        rec.To,
		fieldSubject:   rec.Subject,
		fieldStatus:    string(rec.Status),
		fieldMessageID: rec.MessageID,
		fieldTimestamp: rec.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func fromHash(key string, m map[string]string) domemail.Record {
	rec := domemail.Record{
		ID:        m[fieldID],
		ProgramID: m[fieldProgramID],
		To:        m[fieldTo],
		Subject:   m[fieldSubject],
		Status:    domemail.Status(m[fieldStatus]),
		MessageID: m[fieldMessageID],
	}
	if rec.ID == "" {
		rec.ID = strings.TrimPrefix(key, keyPrefix)
	}
	if ts, err := time.Parse(time.RFC3339Nano, m[fieldTimestamp]); err == nil {
		rec.Timestamp = ts
	}
	return rec
}
