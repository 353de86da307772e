package cache

import (
	"context"
	"errors"
	"fmt"
	"haversine-udf/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
)

const KeyPrefix = "haversine:avg:"

// RedisResultCache stores computed averages in Redis with a TTL.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// A zero ttl keeps entries until they are evicted.
func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{client: client, ttl: ttl}
}

// Fetch a cached average. A missing key is not an error.
func (c *RedisResultCache) Get(ctx context.Context, key string) (_ float64, _ bool, err error) {
	defer obs.Time(ctx, "result.cache.Get")(&err)

	if c.client == nil {
		return 0, false, errors.New("result cache: redis client is nil")
	}
	if key == "" {
		return 0, false, errors.New("get result cache: key must not be empty")
	}

	v, err := c.client.Get(ctx, KeyPrefix+key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get result cache key=%q: %w", key, err)
	}
	return v, true, nil
}

// Store an average under key.
func (c *RedisResultCache) Put(ctx context.Context, key string, value float64) error {
	if c.client == nil {
		return errors.New("result cache: redis client is nil")
	}
	if key == "" {
		return errors.New("put result cache: key must not be empty")
	}

	if err := c.client.Set(ctx, KeyPrefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("put result cache key=%q: %w", key, err)
	}
	return nil
}
