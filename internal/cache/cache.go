// Package cache is a small Redis read-through cache for per-user aggregate
// reads (dashboard, current budget). The API degrades to a no-op when Redis
// is not configured, and any mutation by a user invalidates that user's
// entries.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client. A nil *Cache is valid and caches nothing.
type Cache struct {
	client *redis.Client
}

// New connects to Redis. Returns an error when the server is unreachable so
// the caller can decide to continue without caching.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// Fall back to treating the value as a plain address.
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("cache.New: connecting to redis: %w", err)
	}
	return &Cache{client: client}, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func key(userID, name string) string {
	return "salin:" + userID + ":" + name
}

// Get unmarshals a cached value into dest, reporting whether it was present.
func (c *Cache) Get(ctx context.Context, userID, name string, dest any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key(userID, name)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Set stores a value with a TTL. Failures are ignored; the cache is an
// optimization, not a source of truth.
func (c *Cache) Set(ctx context.Context, userID, name string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.SetEx(ctx, key(userID, name), data, ttl)
}

// Invalidate drops all cached aggregates for the user. Called after any
// mutation that could change a rollup.
func (c *Cache) Invalidate(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, key(userID, "*"), 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}
