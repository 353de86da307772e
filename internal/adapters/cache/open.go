package cache

import (
	"context"
	"haversine-udf/internal/config"
	"haversine-udf/internal/platform/db"
	"haversine-udf/internal/ports"
)

// Open the configured result cache, preferring Redis over Postgres.
// With neither configured it returns a nil cache. The returned func releases
// the connection and is never nil.
func Open(ctx context.Context, cfg config.Config) (ports.ResultCache, func(), error) {
	switch {
	case cfg.Redis.Addr != "":
		client, err := db.OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, func() {}, err
		}
		return NewRedisResultCache(client, cfg.Cache.TTL), func() { _ = client.Close() }, nil
	case cfg.Database.URL != "":
		pool, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, func() {}, err
		}
		c := NewSQLResultCache(pool, cfg.Cache.TTL)
		if err := c.InitSchema(ctx); err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		return c, pool.Close, nil
	default:
		return nil, func() {}, nil
	}
}
