package services

import (
	"context"
	"fmt"
	"haversine-udf/internal/domain"
	"haversine-udf/internal/haversine"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MapColumns applies a scalar kernel to every row of four aligned columns.
//
// Column lengths are validated before any indexed access. The output is
// allocated once with the input length and never shares memory with the inputs.
// Rows marked invalid are skipped and stay invalid in the output.
func MapColumns(cols domain.CoordinateColumns, fn haversine.Func) (domain.DistanceColumn, error) {
	if fn == nil {
		return domain.DistanceColumn{}, fmt.Errorf("map columns: kernel must be non-nil")
	}
	if err := cols.Validate(); err != nil {
		return domain.DistanceColumn{}, fmt.Errorf("map columns: %w", err)
	}

	out := newDistanceColumn(cols)
	mapRange(cols, fn, out, 0, cols.Len())
	return out, nil
}

// HaversineDist maps the haversine kernel over the columns.
func HaversineDist(cols domain.CoordinateColumns) (domain.DistanceColumn, error) {
	return MapColumns(cols, haversine.Distance)
}

// Options for the data-parallel mapper.
type ParallelOptions struct {
	// Workers caps concurrent goroutines; zero means GOMAXPROCS.
	Workers int
	// MinChunk is the smallest row range handed to one goroutine; zero means 4096.
	MinChunk int
}

const defaultMinChunk = 4096

// MapColumnsParallel is MapColumns split into contiguous row ranges that run
// concurrently. Each goroutine writes only its own range of the output, so the
// result is index-aligned with the input regardless of scheduling.
//
// If ctx is cancelled before all ranges finish, the context error is returned
// and no partial column is exposed.
func MapColumnsParallel(
	ctx context.Context,
	cols domain.CoordinateColumns,
	fn haversine.Func,
	opts ParallelOptions,
) (domain.DistanceColumn, error) {
	if fn == nil {
		return domain.DistanceColumn{}, fmt.Errorf("map columns parallel: kernel must be non-nil")
	}
	if err := cols.Validate(); err != nil {
		return domain.DistanceColumn{}, fmt.Errorf("map columns parallel: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	minChunk := opts.MinChunk
	if minChunk <= 0 {
		minChunk = defaultMinChunk
	}

	n := cols.Len()
	out := newDistanceColumn(cols)

	// Ceiling division: spread rows evenly, but never below minChunk per range.
	chunk := (n + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mapRange(cols, fn, out, start, end)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.DistanceColumn{}, fmt.Errorf("map columns parallel: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.DistanceColumn{}, fmt.Errorf("map columns parallel: %w", err)
	}

	return out, nil
}

func newDistanceColumn(cols domain.CoordinateColumns) domain.DistanceColumn {
	out := domain.DistanceColumn{Values: make([]float64, cols.Len())}
	if cols.Valid != nil {
		out.Valid = make([]bool, cols.Len())
		copy(out.Valid, cols.Valid)
	}
	return out
}

// mapRange fills out.Values[start:end]. Lengths are validated by the caller.
func mapRange(cols domain.CoordinateColumns, fn haversine.Func, out domain.DistanceColumn, start, end int) {
	lon0 := cols.Lon0[start:end]
	lat0 := cols.Lat0[start:end]
	lon1 := cols.Lon1[start:end]
	lat1 := cols.Lat1[start:end]
	dst := out.Values[start:end]

	if cols.Valid == nil {
		for i := range dst {
			dst[i] = fn(lon0[i], lat0[i], lon1[i], lat1[i])
		}
		return
	}

	valid := cols.Valid[start:end]
	for i := range dst {
		if !valid[i] {
			continue
		}
		dst[i] = fn(lon0[i], lat0[i], lon1[i], lat1[i])
	}
}
