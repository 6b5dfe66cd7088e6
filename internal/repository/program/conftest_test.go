package program

import (
	"context"
	"path"
	"sort"

	"github.com/techrealm/programdex/internal/db"
)

// mockStore is an in-memory implementation of the consumer interface.
// Set the *Err fields to force failures.
type mockStore struct {
	hashes  map[string]map[string]string
	counter map[string]int64

	existsErr error
	scanErr   error
	hsetErr   error
	incrErr   error
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes:  make(map[string]map[string]string),
		counter: make(map[string]int64),
	}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, it := range items {
		if err := m.HSet(ctx, it.Key, it.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := make(map[string]string)
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i], _ = m.HGetAll(ctx, k)
	}
	return out, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.hashes[key]
	return ok, nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	var keys []string
	for k := range m.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	// SCAN gives no ordering guarantee; reverse-sort to catch reliance on it.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (m *mockStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	if m.incrErr != nil {
		return 0, m.incrErr
	}
	m.counter[key] += val
	return m.counter[key], nil
}
