package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpggio/fleetd/internal/metrics"
)

// DefaultCacheTTL applies when no TTL is configured.
const DefaultCacheTTL = 5 * time.Minute

// RedisCache caches token hash to tenant id in Redis in front of another
// Resolver. Failed resolutions are not cached, and a Redis outage falls
// through to the wrapped resolver.
type RedisCache struct {
	client *redis.Client
	next   Resolver
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewRedisCache connects to redisURL.
func NewRedisCache(redisURL string, next Resolver, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, next, ttl, logger), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, next Resolver, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisCache{client: client, next: next, ttl: ttl, prefix: "tenant:", logger: logger}
}

func (c *RedisCache) key(token string) string {
	return c.prefix + HashToken(token)
}

func (c *RedisCache) ResolveTenant(ctx context.Context, token string) (string, error) {
	key := c.key(token)

	tenantID, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil && tenantID != "":
		metrics.TenantCacheTotal.WithLabelValues("hit").Inc()
		return tenantID, nil
	case errors.Is(err, redis.Nil):
		metrics.TenantCacheTotal.WithLabelValues("miss").Inc()
	case err != nil:
		metrics.TenantCacheTotal.WithLabelValues("error").Inc()
		c.logger.Warn("tenant cache read failed", "error", err)
	}

	tenantID, err = c.next.ResolveTenant(ctx, token)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, tenantID, c.ttl).Err(); err != nil {
		c.logger.Warn("tenant cache write failed", "error", err)
	}
	return tenantID, nil
}

// Invalidate drops the cached entry for token.
func (c *RedisCache) Invalidate(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, c.key(token)).Err(); err != nil {
		return fmt.Errorf("invalidate tenant cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
