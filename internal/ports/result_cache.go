package ports

import "context"

// Contract for caching computed averages keyed by method and source fingerprint.
type ResultCache interface {
	// Return the cached value and whether it was found.
	Get(ctx context.Context, key string) (float64, bool, error)
	Put(ctx context.Context, key string, value float64) error
}
