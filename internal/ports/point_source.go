package ports

import (
	"context"
	"haversine-udf/internal/domain"
)

// Port: a boundary for loading coordinate pairs from a file or database.
type PointSource interface {
	// Short description of the source, used in logs.
	Name() string
	// Return a stable identifier that changes when the underlying data changes.
	Fingerprint(ctx context.Context) (string, error)
	// Load every coordinate pair as four aligned columns.
	LoadColumns(ctx context.Context) (domain.CoordinateColumns, error)
}

// Optional extension of PointSource for backends that can average distances themselves.
type SQLAverager interface {
	PointSource
	// Return the mean haversine distance over all non-null rows.
	AverageDistance(ctx context.Context) (float64, error)
}
