package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/techrealm/programdex/internal/db"
)

const (
	// pipelineChunk bounds the commands sent in one DoMulti round-trip,
	// so a large CSV import does not build one huge pipeline.
	pipelineChunk = 256
	// scanCount is the COUNT hint per SCAN page.
	scanCount = 500
)

// HSet sets hash fields.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.do(ctx, s.hset(key, fields)).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", key, err)}
	}
	return nil
}

// HSetMulti stores multiple hashes, pipelined in chunks of pipelineChunk.
// Items without fields are skipped.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	keys := make([]string, 0, len(items))
	cmds := make([]rueidis.Completed, 0, len(items))
	for _, item := range items {
		if len(item.Fields) == 0 {
			continue
		}
		keys = append(keys, item.Key)
		cmds = append(cmds, s.hset(item.Key, item.Fields))
	}

	for start := 0; start < len(cmds); start += pipelineChunk {
		end := min(start+pipelineChunk, len(cmds))
		for i, res := range s.client.DoMulti(ctx, cmds[start:end]...) {
			if err := res.Error(); err != nil {
				return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", keys[start+i], err)}
			}
		}
	}
	return nil
}

func (s *Store) hset(key string, fields map[string]string) rueidis.Completed {
	cmd := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	return cmd.Build()
}

// HGetAll returns all fields of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", key, err)}
	}
	return m, nil
}

// HGetAllMulti fetches multiple hashes in key order, pipelined in chunks.
// Missing keys yield empty maps.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	out := make([]map[string]string, 0, len(keys))
	for start := 0; start < len(keys); start += pipelineChunk {
		chunk := keys[start:min(start+pipelineChunk, len(keys))]

		cmds := make([]rueidis.Completed, len(chunk))
		for i, key := range chunk {
			cmds[i] = s.b().Hgetall().Key(key).Build()
		}

		for i, res := range s.client.DoMulti(ctx, cmds...) {
			m, err := res.AsStrMap()
			if err != nil {
				return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", chunk[i], err)}
			}
			out = append(out, m)
		}
	}
	return out, nil
}

// Del deletes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.b().Del().Key(key).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	cmd := s.b().Exists().Key(key).Build()
	count, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return count > 0, nil
}

// Scan returns every key matching pattern. SCAN may repeat keys across pages;
// the result holds each key once, in first-seen order.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(scanCount).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		for _, k := range res.Elements {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}
