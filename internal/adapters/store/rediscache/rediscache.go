// Package rediscache wraps the hot-path stores with a Redis cache-aside
// layer. Reads try Redis first and fall through to the wrapped store on a
// miss; writes invalidate. Cache failures are logged and otherwise ignored
// so Redis being down degrades to direct store reads.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/salesforge/platform/internal/platform/config"
)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg *config.StoreConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Checker reports cache connectivity for the readiness endpoint. It
// satisfies ports.HealthChecker via structural typing.
type Checker struct {
	client *redis.Client
}

// NewChecker creates a health checker for the given Redis client.
func NewChecker(client *redis.Client) *Checker {
	return &Checker{client: client}
}

// Name identifies the component in readiness responses.
func (c *Checker) Name() string { return "redis" }

// HealthCheck pings Redis.
func (c *Checker) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// cache holds the shared pieces of the store decorators.
type cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// get loads a cached value into dest and reports whether it was present.
func (c *cache) get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.WarnContext(ctx, "cache entry corrupt", slog.String("key", key), slog.Any("error", err))
		c.del(ctx, key)
		return false
	}
	return true
}

func (c *cache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (c *cache) del(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache invalidation failed", slog.Any("error", err))
	}
}
