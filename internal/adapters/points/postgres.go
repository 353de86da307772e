package points

import (
	"context"
	"errors"
	"fmt"
	"haversine-udf/internal/adapters/jsoncol"
	"haversine-udf/internal/domain"
	"haversine-udf/internal/haversine"

	"github.com/cespare/xxhash/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pointsTable = "points"

const createPointsSQL = `
CREATE TABLE IF NOT EXISTS points (
	id BIGSERIAL PRIMARY KEY,
	x0 DOUBLE PRECISION,
	y0 DOUBLE PRECISION,
	x1 DOUBLE PRECISION,
	y1 DOUBLE PRECISION
)`

// Haversine in SQL with the same radius and clamp as the Go kernel.
// avg skips rows where any coordinate is NULL.
var averageDistanceSQL = fmt.Sprintf(`
SELECT avg(2 * %[1]v * asin(sqrt(least(1, greatest(0,
	power(sin((radians(y0) - radians(y1)) / 2), 2)
	+ cos(radians(y0)) * cos(radians(y1)) * power(sin((radians(x0) - radians(x1)) / 2), 2)
)))))
FROM points`, haversine.EarthRadiusKm)

// PostgresSource stores coordinate pairs in the points table.
type PostgresSource struct {
	pool   *pgxpool.Pool
	policy domain.NullPolicy
}

func NewPostgresSource(pool *pgxpool.Pool, policy domain.NullPolicy) *PostgresSource {
	return &PostgresSource{pool: pool, policy: policy}
}

func (s *PostgresSource) Name() string { return "postgres:" + pointsTable }

// Create the points table if it does not exist.
func (s *PostgresSource) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createPointsSQL); err != nil {
		return fmt.Errorf("init points schema: %w", err)
	}
	return nil
}

// Remove every stored pair.
func (s *PostgresSource) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE points RESTART IDENTITY"); err != nil {
		return fmt.Errorf("reset points: %w", err)
	}
	return nil
}

// Seed bulk-loads cols with COPY. Invalid rows are stored as all-NULL.
func (s *PostgresSource) Seed(ctx context.Context, cols domain.CoordinateColumns) (int64, error) {
	if err := cols.Validate(); err != nil {
		return 0, fmt.Errorf("seed points: %w", err)
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{pointsTable},
		[]string{"x0", "y0", "x1", "y1"},
		pgx.CopyFromSlice(cols.Len(), func(i int) ([]any, error) {
			if !cols.ValidAt(i) {
				return []any{nil, nil, nil, nil}, nil
			}
			return []any{cols.Lon0[i], cols.Lat0[i], cols.Lon1[i], cols.Lat1[i]}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("seed points: copy: %w", err)
	}
	return n, nil
}

// Fingerprint hashes every coordinate in insertion order, so any change to a
// value or its position changes it.
const fingerprintSQL = `
SELECT count(*), coalesce(md5(string_agg(concat_ws(',',
	coalesce(x0::text, 'null'), coalesce(y0::text, 'null'),
	coalesce(x1::text, 'null'), coalesce(y1::text, 'null')), ';' ORDER BY id)), '')
FROM points`

func (s *PostgresSource) Fingerprint(ctx context.Context) (string, error) {
	var count int64
	var digest string
	if err := s.pool.QueryRow(ctx, fingerprintSQL).Scan(&count, &digest); err != nil {
		return "", fmt.Errorf("fingerprint points: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%d:%s", count, digest))), nil
}

// LoadColumns reads all rows in insertion order. NULLs follow the null policy.
func (s *PostgresSource) LoadColumns(ctx context.Context) (domain.CoordinateColumns, error) {
	rows, err := s.pool.Query(ctx, "SELECT x0, y0, x1, y1 FROM points ORDER BY id")
	if err != nil {
		return domain.CoordinateColumns{}, fmt.Errorf("load points: query: %w", err)
	}
	defer rows.Close()

	var lon0, lat0, lon1, lat1 []*float64
	for rows.Next() {
		var x0, y0, x1, y1 *float64
		if err := rows.Scan(&x0, &y0, &x1, &y1); err != nil {
			return domain.CoordinateColumns{}, fmt.Errorf("load points: scan: %w", err)
		}
		lon0 = append(lon0, x0)
		lat0 = append(lat0, y0)
		lon1 = append(lon1, x1)
		lat1 = append(lat1, y1)
	}
	if err := rows.Err(); err != nil {
		return domain.CoordinateColumns{}, fmt.Errorf("load points: %w", err)
	}

	cols, err := jsoncol.NewAdapter(s.policy).Columns(lon0, lat0, lon1, lat1)
	if err != nil {
		return domain.CoordinateColumns{}, fmt.Errorf("load points: %w", err)
	}
	return cols, nil
}

// First row, in insertion order, with a NULL coordinate. index is its
// zero-based position as LoadColumns would see it.
const firstNullSQL = `
SELECT (SELECT count(*) FROM points q WHERE q.id < p.id),
	p.x0 IS NULL, p.y0 IS NULL, p.x1 IS NULL, p.y1 IS NULL
FROM points p
WHERE p.x0 IS NULL OR p.y0 IS NULL OR p.x1 IS NULL OR p.y1 IS NULL
ORDER BY p.id
LIMIT 1`

// Return a NullValueError for the first NULL coordinate, or nil if there is none.
func (s *PostgresSource) firstNull(ctx context.Context) error {
	var index int64
	var nulls [4]bool
	err := s.pool.QueryRow(ctx, firstNullSQL).Scan(&index, &nulls[0], &nulls[1], &nulls[2], &nulls[3])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find null points: %w", err)
	}

	names := []string{domain.ColLon0, domain.ColLat0, domain.ColLon1, domain.ColLat1}
	for i, isNull := range nulls {
		if isNull {
			return &domain.NullValueError{Column: names[i], Index: int(index)}
		}
	}
	return nil
}

// AverageDistance computes the mean distance inside Postgres. Under NullReject
// any NULL coordinate fails the call, as it does for LoadColumns.
func (s *PostgresSource) AverageDistance(ctx context.Context) (float64, error) {
	if s.policy == domain.NullReject {
		if err := s.firstNull(ctx); err != nil {
			return 0, fmt.Errorf("average distance: %w", err)
		}
	}

	var avg *float64
	if err := s.pool.QueryRow(ctx, averageDistanceSQL).Scan(&avg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("average distance: %w", domain.ErrNoData)
		}
		return 0, fmt.Errorf("average distance: %w", err)
	}
	if avg == nil {
		return 0, fmt.Errorf("average distance: %w", domain.ErrNoData)
	}
	return *avg, nil
}
