package services

import (
	"context"
	"errors"
	"fmt"
	"haversine-udf/internal/domain"
	"haversine-udf/internal/haversine"
	"haversine-udf/internal/platform/obs"
	"haversine-udf/internal/ports"
	"sort"
)

var (
	ErrUnknownMethod     = errors.New("unknown method")
	ErrUnsupportedSource = errors.New("source does not support this method")
)

// Calculator computes the mean haversine distance over a point source.
type Calculator interface {
	Name() string
	AverageDistance(ctx context.Context, src ports.PointSource) (float64, error)
}

// Method names.
const (
	MethodScalar   = "scalar"
	MethodVector   = "vector"
	MethodParallel = "parallel"
	MethodArrow    = "arrow"
	MethodS2       = "s2"
	MethodSQL      = "pgsql"
)

func loadColumns(ctx context.Context, src ports.PointSource) (domain.CoordinateColumns, error) {
	cols, err := src.LoadColumns(ctx)
	if err != nil {
		return domain.CoordinateColumns{}, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	if err := cols.Validate(); err != nil {
		return domain.CoordinateColumns{}, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	return cols, nil
}

func mean(dist domain.DistanceColumn) (float64, error) {
	m, ok := dist.Mean()
	if !ok {
		return 0, domain.ErrNoData
	}
	return m, nil
}

// Calls the kernel row by row and accumulates, without building an output column.
type scalarCalculator struct{}

func NewScalarCalculator() Calculator { return scalarCalculator{} }

func (scalarCalculator) Name() string { return MethodScalar }

func (scalarCalculator) AverageDistance(ctx context.Context, src ports.PointSource) (_ float64, err error) {
	defer obs.Time(ctx, "calc."+MethodScalar)(&err)

	cols, err := loadColumns(ctx, src)
	if err != nil {
		return 0, err
	}

	var sum float64
	n := 0
	for i := 0; i < cols.Len(); i++ {
		if !cols.ValidAt(i) {
			continue
		}
		sum += haversine.Distance(cols.Lon0[i], cols.Lat0[i], cols.Lon1[i], cols.Lat1[i])
		n++
	}
	if n == 0 {
		return 0, domain.ErrNoData
	}
	return sum / float64(n), nil
}

// Maps a kernel over the columns, then averages the output column.
type columnCalculator struct {
	name string
	fn   haversine.Func
}

func NewVectorCalculator() Calculator {
	return columnCalculator{name: MethodVector, fn: haversine.Distance}
}

// NewS2Calculator averages distances computed by the S2 geometry library.
func NewS2Calculator() Calculator {
	return columnCalculator{name: MethodS2, fn: haversine.S2Distance}
}

func (c columnCalculator) Name() string { return c.name }

func (c columnCalculator) AverageDistance(ctx context.Context, src ports.PointSource) (_ float64, err error) {
	defer obs.Time(ctx, "calc."+c.name)(&err)

	cols, err := loadColumns(ctx, src)
	if err != nil {
		return 0, err
	}
	dist, err := MapColumns(cols, c.fn)
	if err != nil {
		return 0, err
	}
	return mean(dist)
}

type parallelCalculator struct {
	opts ParallelOptions
}

func NewParallelCalculator(opts ParallelOptions) Calculator {
	return parallelCalculator{opts: opts}
}

func (parallelCalculator) Name() string { return MethodParallel }

func (c parallelCalculator) AverageDistance(ctx context.Context, src ports.PointSource) (_ float64, err error) {
	defer obs.Time(ctx, "calc."+MethodParallel)(&err)

	cols, err := loadColumns(ctx, src)
	if err != nil {
		return 0, err
	}
	dist, err := MapColumnsParallel(ctx, cols, haversine.Distance, c.opts)
	if err != nil {
		return 0, err
	}
	return mean(dist)
}

// HostCalculator round-trips the columns through a host array type C:
// it builds host arrays, invokes the columnar function on them and reads
// the result back.
type HostCalculator[C any] struct {
	name    string
	adapter ports.ColumnAdapter[C]
	fn      ports.ColumnFunc[C]
}

func NewHostCalculator[C any](name string, adapter ports.ColumnAdapter[C], fn ports.ColumnFunc[C]) *HostCalculator[C] {
	return &HostCalculator[C]{name: name, adapter: adapter, fn: fn}
}

func (c *HostCalculator[C]) Name() string { return c.name }

func (c *HostCalculator[C]) AverageDistance(ctx context.Context, src ports.PointSource) (_ float64, err error) {
	defer obs.Time(ctx, "calc."+c.name)(&err)

	cols, err := loadColumns(ctx, src)
	if err != nil {
		return 0, err
	}

	inputs := make([]C, 0, 4)
	defer func() {
		for _, in := range inputs {
			release(in)
		}
	}()
	for _, values := range [][]float64{cols.Lon0, cols.Lat0, cols.Lon1, cols.Lat1} {
		in, err := c.adapter.FromFloat64Array(domain.DistanceColumn{Values: values, Valid: cols.Valid})
		if err != nil {
			return 0, fmt.Errorf("%s: build input: %w", c.name, err)
		}
		inputs = append(inputs, in)
	}

	out, err := c.fn.Call(inputs[0], inputs[1], inputs[2], inputs[3])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c.name, err)
	}
	defer release(out)

	values, valid, err := c.adapter.ToFloat64Array(c.name, out)
	if err != nil {
		return 0, fmt.Errorf("%s: read output: %w", c.name, err)
	}
	return mean(domain.DistanceColumn{Values: values, Valid: valid})
}

// Host arrays with reference counting, such as Arrow arrays, expose Release.
func release(v any) {
	if r, ok := v.(interface{ Release() }); ok {
		r.Release()
	}
}

// Delegates the whole computation to a source that can average in place.
type sqlCalculator struct{}

func NewSQLCalculator() Calculator { return sqlCalculator{} }

func (sqlCalculator) Name() string { return MethodSQL }

func (sqlCalculator) AverageDistance(ctx context.Context, src ports.PointSource) (_ float64, err error) {
	defer obs.Time(ctx, "calc."+MethodSQL)(&err)

	avg, ok := src.(ports.SQLAverager)
	if !ok {
		return 0, fmt.Errorf("%s: %s: %w", MethodSQL, src.Name(), ErrUnsupportedSource)
	}
	return avg.AverageDistance(ctx)
}

// Registry maps method names to calculators.
type Registry struct {
	calcs map[string]Calculator
}

func NewRegistry(calcs ...Calculator) *Registry {
	r := &Registry{calcs: make(map[string]Calculator, len(calcs))}
	for _, c := range calcs {
		r.Register(c)
	}
	return r
}

// DefaultRegistry holds every method that needs no host adapter.
func DefaultRegistry(opts ParallelOptions) *Registry {
	return NewRegistry(
		NewScalarCalculator(),
		NewVectorCalculator(),
		NewParallelCalculator(opts),
		NewS2Calculator(),
		NewSQLCalculator(),
	)
}

// Register adds c, replacing any calculator with the same name.
func (r *Registry) Register(c Calculator) {
	r.calcs[c.Name()] = c
}

func (r *Registry) Get(name string) (Calculator, error) {
	c, ok := r.calcs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownMethod, name, r.Names())
	}
	return c, nil
}

// Return the registered method names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.calcs))
	for name := range r.calcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
