package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // Values are stored as JSON
	"errors"        // Redis miss detection
	"time"          // Entry lifetimes

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache stores JSON-encoded values of one type under a shared key prefix
type Cache[T any] struct {
	rdb    redis.Cmdable
	prefix string
}

// NewCache creates a Cache whose keys all start with prefix
func NewCache[T any](rdb redis.Cmdable, prefix string) *Cache[T] {
	return &Cache[T]{rdb: rdb, prefix: prefix}
}

// Key returns the full Redis key for id
func (c *Cache[T]) Key(id string) string {
	return c.prefix + id
}

// Get loads the value stored under id. A miss is (nil, false, nil).
func (c *Cache[T]) Get(ctx context.Context, id string) (*T, bool, error) {
	raw, err := c.rdb.Get(ctx, c.Key(id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, err
	}
	return &value, true, nil
}

// Set stores value under id for ttl
func (c *Cache[T]) Set(ctx context.Context, id string, value T, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.Key(id), b, ttl).Err()
}

// Delete removes id; deleting a missing key is not an error
func (c *Cache[T]) Delete(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, c.Key(id)).Err()
}
