package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/techrealm/programdex/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value without expiry, clearing any previous TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.b().Set().Key(key).Value(string(value)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value that expires after ttl, rounded up to whole seconds.
// A non-positive ttl stores the value without expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Set(ctx, key, value)
	}
	cmd := s.b().Set().Key(key).Value(string(value)).Ex(time.Duration(ttlSeconds(ttl)) * time.Second).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// IncrBy atomically increments a key by the given amount and returns the new value.
// A missing key counts from zero.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	cmd := s.b().Incrby().Key(key).Increment(val).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return n, nil
}

// Expire sets TTL on a key, rounded up to whole seconds. When nx is true the
// TTL is only set if the key has none yet (EXPIRE NX). A non-positive ttl is a no-op.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	if ttl <= 0 {
		return nil
	}
	var cmd rueidis.Completed
	if nx {
		cmd = s.b().Expire().Key(key).Seconds(ttlSeconds(ttl)).Nx().Build()
	} else {
		cmd = s.b().Expire().Key(key).Seconds(ttlSeconds(ttl)).Build()
	}
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

// ttlSeconds converts ttl to whole seconds, never below one.
func ttlSeconds(ttl time.Duration) int64 {
	secs := int64((ttl + time.Second - 1) / time.Second)
	return max(secs, 1)
}
