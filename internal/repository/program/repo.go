package program

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/techrealm/programdex/internal/db"
	"github.com/techrealm/programdex/internal/domain"
	domprog "github.com/techrealm/programdex/internal/domain/program"
)

const (
	keyPrefix = "programdex:program:"
	seqKey    = "programdex:seq:program"
)

// store is the consumer interface for programs (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// Repo implements usecase/program.Repository on Redis hashes, one per program.
type Repo struct {
	store store
}

// New creates a program repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func programKey(id string) string {
	return keyPrefix + id
}

// Upsert creates or replaces a program. New programs go to the end of the
// catalog; replaced ones keep their position. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, p *domprog.Program) (bool, error) {
	key := programKey(p.ID)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	var seq int64
	if !exists {
		if seq, err = r.store.IncrBy(ctx, seqKey, 1); err != nil {
			return false, fmt.Errorf("next sequence: %w", err)
		}
	}

	if err := r.store.HSet(ctx, key, buildHashFields(p, seq)); err != nil {
		return false, fmt.Errorf("hset %s: %w", key, err)
	}
	return !exists, nil
}

// SaveMany writes programs in one round-trip, placing them at the end of the
// catalog in the given order. Existing programs with the same id are replaced
// and move to their new position.
func (r *Repo) SaveMany(ctx context.Context, programs []domprog.Program) error {
	if len(programs) == 0 {
		return nil
	}

	last, err := r.store.IncrBy(ctx, seqKey, int64(len(programs)))
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}
	first := last - int64(len(programs)) + 1

	items := make([]db.HashSetItem, len(programs))
	for i := range programs {
		items[i] = db.HashSetItem{
			Key:    programKey(programs[i].ID),
			Fields: buildHashFields(&programs[i], first+int64(i)),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset multi: %w", err)
	}
	return nil
}

// Get returns a program by id.
func (r *Repo) Get(ctx context.Context, id string) (domprog.Program, error) {
	key := programKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domprog.Program{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domprog.Program{}, domain.ErrProgramNotFound
	}
	p, _ := parseHashFields(m)
	return p, nil
}

// Delete removes a program.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := programKey(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrProgramNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// All returns every program in catalog order.
func (r *Repo) All(ctx context.Context) ([]domprog.Program, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan programs: %w", err)
	}
	if len(keys) == 0 {
		return []domprog.Program{}, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}

	type entry struct {
		p   domprog.Program
		seq int64
	}
	entries := make([]entry, 0, len(hashes))
	for i, m := range hashes {
		// Deleted between SCAN and HGETALL.
		if len(m) == 0 {
			continue
		}
		p, seq := parseHashFields(m)
		if p.ID == "" {
			p.ID = strings.TrimPrefix(keys[i], keyPrefix)
		}
		entries = append(entries, entry{p: p, seq: seq})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].seq != entries[j].seq {
			return entries[i].seq < entries[j].seq
		}
		return entries[i].p.ID < entries[j].p.ID
	})

	out := make([]domprog.Program, len(entries))
	for i := range entries {
		out[i] = entries[i].p
	}
	return out, nil
}
