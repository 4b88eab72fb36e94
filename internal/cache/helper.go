package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a JSON cache over Redis. A Store with a nil client is valid and
// behaves as an always-empty cache.
type Store struct {
	rdb *redis.Client
}

// NewStore wraps rdb, which may be nil.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Enabled reports whether a Redis client is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.rdb != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, ttl).Err()
}

// CacheAside tries Redis first; on a miss it calls fetch, which must populate
// dest, then stores dest with ttl. Redis failures degrade to a miss. The
// returned bool reports a cache hit.
func (s *Store) CacheAside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) (bool, error) {
	return s.CacheAsideTTL(ctx, key, dest, func() (time.Duration, error) {
		return ttl, fetch()
	})
}

// CacheAsideTTL is CacheAside with the TTL picked by fetch from the value it
// built. A non-positive TTL leaves the value uncached.
func (s *Store) CacheAsideTTL(ctx context.Context, key string, dest any, fetch func() (time.Duration, error)) (bool, error) {
	if found, err := s.GetJSON(ctx, key, dest); err == nil && found {
		return true, nil
	}

	ttl, err := fetch()
	if err != nil {
		return false, err
	}
	if ttl > 0 {
		_ = s.SetJSON(ctx, key, dest, ttl)
	}
	return false, nil
}

// Invalidate deletes keys, ignoring errors.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	s.rdb.Del(ctx, keys...)
}

// InvalidateLearner drops every cached view of userID's verification state.
func (s *Store) InvalidateLearner(ctx context.Context, userID uint) {
	s.Invalidate(ctx, LearnerKeys(userID)...)
}
