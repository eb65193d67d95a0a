package signing

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "nexus:replay:"

// RedisCache backs the replay cache with Redis so multiple verifier
// processes share one view of used signatures. Expiry is delegated to
// Redis key TTLs; no explicit purge is needed.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache constructs a RedisCache over an existing client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Seen reports whether the signature key still exists.
func (c *RedisCache) Seen(ctx context.Context, signature string) (bool, error) {
	n, err := c.client.Exists(ctx, redisKeyPrefix+signature).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Remember stores the signature with a TTL.
func (c *RedisCache) Remember(ctx context.Context, signature string, ttl time.Duration) error {
	if err := c.client.Set(ctx, redisKeyPrefix+signature, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
