package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"murmur/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first, on miss it calls fetch (which must populate dest),
// then stores the result with ttl. Cache failures degrade to a direct fetch.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	span, ctx := observability.StartRedisSpan(ctx, "aside")
	var err error
	defer func() { span.End(err) }()

	found, getErr := GetJSON(ctx, key, dest)
	if getErr == nil && found {
		observability.CacheLookups.WithLabelValues(keyFamily(key), "hit").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues(keyFamily(key), "miss").Inc()

	if err = fetch(); err != nil {
		return err
	}

	// Best effort; the caller already has fresh data.
	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate drops key from the cache.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}
