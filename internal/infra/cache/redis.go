package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a Redis-backed cache with TTL, sharing the same interface
// as InMemory so the backend is a pure deployment choice. Values are
// stored as JSON under a common key prefix.
//
// Redis here is a cache, never a system of record: a miss (including
// any Redis error) just means the caller recomputes.
type Redis[T any] struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedis creates a Redis cache against the given address.
func NewRedis[T any](addr, prefix string, ttl time.Duration, logger *zap.Logger) *Redis[T] {
	return &Redis[T]{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

const redisOpTimeout = 500 * time.Millisecond

// Get retrieves and unmarshals a value. Any error is a miss.
func (c *Redis[T]) Get(key string) (T, bool) {
	var zero T

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("redis cache: get failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.Warn("redis cache: corrupt entry", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return value, true
}

// Set marshals and stores a value with the configured TTL.
// Failures are logged and ignored; the cache is best-effort.
func (c *Redis[T]) Set(key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis cache: marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("redis cache: set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes a value.
func (c *Redis[T]) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.logger.Debug("redis cache: delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Ping checks connectivity, used by the health endpoint.
func (c *Redis[T]) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
