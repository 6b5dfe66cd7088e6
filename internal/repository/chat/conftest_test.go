package chat

import (
	"context"
	"path"
	"time"

	"github.com/techrealm/programdex/internal/db"
)

// mockStore is an in-memory KV implementation of the consumer interface.
type mockStore struct {
	data map[string][]byte
	ttls map[string]time.Duration

	getErr error
	setErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	delete(m.ttls, key)
	return nil
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := m.Set(ctx, key, value); err != nil {
		return err
	}
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
