package cache

import (
	"context"
	"errors"
	"fmt"
	"haversine-udf/internal/platform/obs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLResultCache is a Postgres-backed cache for computed averages.
type SQLResultCache struct {
	DB  *pgxpool.Pool
	TTL time.Duration
}

func NewSQLResultCache(db *pgxpool.Pool, ttl time.Duration) *SQLResultCache {
	return &SQLResultCache{DB: db, TTL: ttl}
}

// Create the result_cache table if it does not exist.
func (s *SQLResultCache) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("result cache: db is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS result_cache (
		cache_key TEXT PRIMARY KEY,
		value DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	if _, err := s.DB.Exec(ctx, q); err != nil {
		return fmt.Errorf("init result cache: create table: %w", err)
	}
	return nil
}

// Fetch a cached average. Entries older than TTL count as missing.
func (s *SQLResultCache) Get(ctx context.Context, key string) (_ float64, _ bool, err error) {
	defer obs.Time(ctx, "result.cache.sql.Get")(&err)

	if s.DB == nil {
		return 0, false, errors.New("result cache: db is nil")
	}
	if key == "" {
		return 0, false, errors.New("get result cache: key must not be empty")
	}

	q := `
	SELECT value
	FROM result_cache
	WHERE cache_key = $1
		AND ($2::bigint = 0 OR updated_at > now() - make_interval(secs => $2::bigint));
	`

	var v float64
	err = s.DB.QueryRow(ctx, q, key, int64(s.TTL/time.Second)).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get result cache: query result_cache table: %w", err)
	}
	return v, true, nil
}

// Store an average, replacing any previous value for key.
func (s *SQLResultCache) Put(ctx context.Context, key string, value float64) error {
	if s.DB == nil {
		return errors.New("result cache: db is nil")
	}
	if key == "" {
		return errors.New("insert result cache: key must not be empty")
	}

	q := `
	INSERT INTO result_cache (cache_key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (cache_key) DO UPDATE
	SET value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.DB.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("insert result cache key=%q: %w", key, err)
	}
	return nil
}
