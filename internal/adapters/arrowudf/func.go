package arrowudf

import (
	"fmt"
	"haversine-udf/internal/domain"
	"strings"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
)

// Name under which the function is registered with a host.
const Name = "haversine_dist"

// Output column name of CallRecord.
const DistanceColumn = "distance_km"

// Maps a validated set of input columns to distances.
type MapFunc func(cols domain.CoordinateColumns) (domain.DistanceColumn, error)

// ColumnNames selects the four input columns of a record batch.
type ColumnNames struct {
	Lon0, Lat0, Lon1, Lat1 string
}

func DefaultColumnNames() ColumnNames {
	return ColumnNames{
		Lon0: domain.ColLon0,
		Lat0: domain.ColLat0,
		Lon1: domain.ColLon1,
		Lat1: domain.ColLat1,
	}
}

// Parse "a,b,c,d" into column names in lon0, lat0, lon1, lat1 order.
// The empty string selects DefaultColumnNames.
func ParseColumnNames(s string) (ColumnNames, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultColumnNames(), nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return ColumnNames{}, fmt.Errorf("parse column names: want 4 comma-separated names, got %d", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return ColumnNames{}, fmt.Errorf("parse column names: name %d is empty", i)
		}
	}
	return ColumnNames{Lon0: parts[0], Lat0: parts[1], Lon1: parts[2], Lat1: parts[3]}, nil
}

// Func is the haversine_dist(float64[], float64[], float64[], float64[]) -> float64[]
// entry point for Arrow hosts.
type Func struct {
	adapter    *Adapter
	mapColumns MapFunc
}

func NewFunc(adapter *Adapter, mapColumns MapFunc) *Func {
	return &Func{adapter: adapter, mapColumns: mapColumns}
}

// Call computes the distance for every row of four equal-length arrays.
// The caller owns the returned array and must Release it.
func (f *Func) Call(lon0, lat0, lon1, lat1 arrow.Array) (arrow.Array, error) {
	if f.mapColumns == nil {
		return nil, fmt.Errorf("%s: no column mapper configured", Name)
	}

	n := lon0.Len()
	inputs := []struct {
		name string
		arr  arrow.Array
	}{
		{domain.ColLon0, lon0},
		{domain.ColLat0, lat0},
		{domain.ColLon1, lon1},
		{domain.ColLat1, lat1},
	}
	for _, in := range inputs[1:] {
		if in.arr.Len() != n {
			return nil, fmt.Errorf("%s: %w", Name, &domain.LengthMismatchError{Column: in.name, Want: n, Got: in.arr.Len()})
		}
	}

	values := make([][]float64, len(inputs))
	valids := make([][]bool, len(inputs))
	for i, in := range inputs {
		v, ok, err := f.adapter.ToFloat64Array(in.name, in.arr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Name, err)
		}
		values[i], valids[i] = v, ok
	}

	cols := domain.CoordinateColumns{
		Lon0:  values[0],
		Lat0:  values[1],
		Lon1:  values[2],
		Lat1:  values[3],
		Valid: domain.MergeValidity(n, valids...),
	}

	out, err := f.mapColumns(cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Name, err)
	}

	arr, err := f.adapter.FromFloat64Array(out)
	if err != nil {
		return nil, fmt.Errorf("%s: build output: %w", Name, err)
	}
	return arr, nil
}

// CallRecord applies the function to the named columns of rec and returns a
// one-column record named distance_km. The caller must Release it.
func (f *Func) CallRecord(rec arrow.Record, names ColumnNames) (arrow.Record, error) {
	lookup := func(name string) (arrow.Array, error) {
		idx := rec.Schema().FieldIndices(name)
		if len(idx) == 0 {
			return nil, fmt.Errorf("%s: %w", Name, &domain.MissingColumnError{Column: name})
		}
		return rec.Column(idx[0]), nil
	}

	var cols [4]arrow.Array
	for i, name := range []string{names.Lon0, names.Lat0, names.Lon1, names.Lat1} {
		col, err := lookup(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	dist, err := f.Call(cols[0], cols[1], cols[2], cols[3])
	if err != nil {
		return nil, err
	}
	defer dist.Release()

	return array.NewRecord(OutputSchema(), []arrow.Array{dist}, int64(dist.Len())), nil
}

// Schema of the records produced by CallRecord.
func OutputSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: DistanceColumn, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)
}
