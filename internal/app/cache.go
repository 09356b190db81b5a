package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// RenderCache stores rendered payloads keyed by record.
type RenderCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisRenderCache shares rendered timelines between replicas.
type RedisRenderCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisRenderCache creates a Redis-backed render cache.
func NewRedisRenderCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisRenderCache {
	trimmedPrefix := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmedPrefix == "" {
		trimmedPrefix = "narration:render"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisRenderCache{client: client, prefix: trimmedPrefix, ttl: ttl}
}

func (c *RedisRenderCache) key(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

func (c *RedisRenderCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	value, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (c *RedisRenderCache) Set(ctx context.Context, key string, value []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.key(key), value, c.ttl).Err()
}

func (c *RedisRenderCache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, c.key(key))
	}
	return c.client.Del(ctx, prefixed...).Err()
}

// MemoryRenderCache keeps renders in process when Redis is not configured.
type MemoryRenderCache struct {
	cache *gocache.Cache
}

// NewMemoryRenderCache creates an in-process render cache.
func NewMemoryRenderCache(ttl time.Duration) *MemoryRenderCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryRenderCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryRenderCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := value.([]byte)
	return b, ok, nil
}

func (c *MemoryRenderCache) Set(_ context.Context, key string, value []byte) error {
	c.cache.SetDefault(key, value)
	return nil
}

func (c *MemoryRenderCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.cache.Delete(key)
	}
	return nil
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (noopCache) Set(context.Context, string, []byte) error         { return nil }
func (noopCache) Delete(context.Context, ...string) error           { return nil }
