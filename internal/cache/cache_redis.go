package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueryCache caches API responses in redis under a common prefix so a
// logout can remove every cached payload in one sweep.
type RedisQueryCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisQueryCache(client redis.UniversalClient, prefix string) *RedisQueryCache {
	if prefix == "" {
		prefix = "authkit_cache"
	}
	return &RedisQueryCache{client: client, prefix: prefix}
}

func (c *RedisQueryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, c.dataKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return raw, true, nil
}

func (c *RedisQueryCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, c.dataKey(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Clear deletes every key under the cache prefix via cursor scans.
func (c *RedisQueryCache) Clear(ctx context.Context) error {
	var cursor uint64
	pattern := c.prefix + ":*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache clear: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisQueryCache) dataKey(key string) string {
	return c.prefix + ":" + key
}
