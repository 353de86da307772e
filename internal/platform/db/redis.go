package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Open a Redis client and verify it with a ping.
func OpenRedis(ctx context.Context, addr, password string, database int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("openRedis: ping %s: %w", addr, err)
	}

	return client, nil
}
