// Package arrowudf exposes the haversine distance function over Apache Arrow arrays.
package arrowudf

import (
	"haversine-udf/internal/domain"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
)

// Adapter converts between Arrow arrays and float64 columns.
// It implements ports.ColumnAdapter[arrow.Array].
type Adapter struct {
	mem    memory.Allocator
	policy domain.NullPolicy
}

// Create an adapter. A nil allocator selects memory.DefaultAllocator.
func NewAdapter(mem memory.Allocator, policy domain.NullPolicy) *Adapter {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Adapter{mem: mem, policy: policy}
}

func (a *Adapter) Allocator() memory.Allocator { return a.mem }

func (a *Adapter) NullPolicy() domain.NullPolicy { return a.policy }

// ToFloat64Array reads col as float64 values.
//
// FLOAT64 arrays are read in place: the returned slice aliases the Arrow buffer
// and is only valid while col is retained. Narrower numeric types are widened
// into a new slice; INT64 and UINT64 values beyond 2^53 round to the nearest
// float64. Values at null slots are unspecified; nulls are reported through the
// validity slice or rejected, depending on the null policy.
func (a *Adapter) ToFloat64Array(name string, col arrow.Array) ([]float64, []bool, error) {
	values, err := float64Values(name, col)
	if err != nil {
		return nil, nil, err
	}

	if col.NullN() == 0 {
		return values, nil, nil
	}

	if a.policy == domain.NullReject {
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				return nil, nil, &domain.NullValueError{Column: name, Index: i}
			}
		}
	}

	valid := make([]bool, col.Len())
	for i := range valid {
		valid[i] = col.IsValid(i)
	}
	return values, valid, nil
}

// FromFloat64Array builds a FLOAT64 array. Invalid rows become nulls.
// The caller owns the returned array and must Release it.
func (a *Adapter) FromFloat64Array(col domain.DistanceColumn) (arrow.Array, error) {
	b := array.NewFloat64Builder(a.mem)
	defer b.Release()

	b.Reserve(col.Len())
	b.AppendValues(col.Values, col.Valid)
	return b.NewFloat64Array(), nil
}

func float64Values(name string, col arrow.Array) ([]float64, error) {
	switch c := col.(type) {
	case *array.Float64:
		return c.Float64Values(), nil
	case *array.Float32:
		return widen(c.Float32Values()), nil
	case *array.Int8:
		return widen(c.Int8Values()), nil
	case *array.Int16:
		return widen(c.Int16Values()), nil
	case *array.Int32:
		return widen(c.Int32Values()), nil
	case *array.Int64:
		return widen(c.Int64Values()), nil
	case *array.Uint8:
		return widen(c.Uint8Values()), nil
	case *array.Uint16:
		return widen(c.Uint16Values()), nil
	case *array.Uint32:
		return widen(c.Uint32Values()), nil
	case *array.Uint64:
		return widen(c.Uint64Values()), nil
	default:
		return nil, &domain.ConversionError{Column: name, Type: typeName(col.DataType())}
	}
}

type number interface {
	~float32 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func widen[T number](src []T) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

func typeName(dt arrow.DataType) string {
	if dt == nil {
		return "unknown"
	}
	return dt.String()
}
