package arrowudf

import (
	"bytes"
	"errors"
	"haversine-udf/internal/domain"
	"haversine-udf/internal/haversine"
	"haversine-udf/internal/services"
	"math"
	"testing"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lon0 = []float64{-73.9857, 0, 2.3522, 10, -122.4194}
	lat0 = []float64{40.7484, 0, 48.8566, 10, 37.7749}
	lon1 = []float64{2.3522, 180, 2.3522, 11, -118.2437}
	lat1 = []float64{48.8566, 0, 48.8566, 10, 34.0522}
)

func newFunc(mem memory.Allocator, policy domain.NullPolicy) *Func {
	return NewFunc(NewAdapter(mem, policy), services.HaversineDist)
}

func f64(mem memory.Allocator, values []float64, valid []bool) arrow.Array {
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func releaseAll(arrs ...arrow.Array) {
	for _, a := range arrs {
		a.Release()
	}
}

func TestCallMatchesKernel(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a, b, c, d := f64(mem, lon0, nil), f64(mem, lat0, nil), f64(mem, lon1, nil), f64(mem, lat1, nil)
	defer releaseAll(a, b, c, d)

	out, err := newFunc(mem, domain.NullReject).Call(a, b, c, d)
	require.NoError(t, err)
	defer out.Release()

	dist, ok := out.(*array.Float64)
	require.True(t, ok)
	require.Equal(t, len(lon0), dist.Len())
	assert.Zero(t, dist.NullN())
	for i := range lon0 {
		assert.Equal(t, haversine.Distance(lon0[i], lat0[i], lon1[i], lat1[i]), dist.Value(i), "row %d", i)
	}
}

func TestCallLengthMismatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a := f64(mem, []float64{1, 2, 3}, nil)
	b := f64(mem, []float64{1, 2, 3}, nil)
	c := f64(mem, []float64{1, 2, 3}, nil)
	d := f64(mem, []float64{1, 2, 3, 4}, nil)
	defer releaseAll(a, b, c, d)

	out, err := newFunc(mem, domain.NullReject).Call(a, b, c, d)
	assert.Nil(t, out)
	require.ErrorIs(t, err, domain.ErrLengthMismatch)

	var lenErr *domain.LengthMismatchError
	require.True(t, errors.As(err, &lenErr))
	assert.Equal(t, domain.ColLat1, lenErr.Column)
	assert.Equal(t, 3, lenErr.Want)
	assert.Equal(t, 4, lenErr.Got)
}

func TestCallRejectsNulls(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a := f64(mem, lon0, nil)
	b := f64(mem, lat0, []bool{true, true, false, true, true})
	c, d := f64(mem, lon1, nil), f64(mem, lat1, nil)
	defer releaseAll(a, b, c, d)

	out, err := newFunc(mem, domain.NullReject).Call(a, b, c, d)
	assert.Nil(t, out)
	require.ErrorIs(t, err, domain.ErrNullValue)

	var nullErr *domain.NullValueError
	require.True(t, errors.As(err, &nullErr))
	assert.Equal(t, domain.ColLat0, nullErr.Column)
	assert.Equal(t, 2, nullErr.Index)
}

func TestCallPropagatesNulls(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a := f64(mem, lon0, []bool{true, true, true, true, false})
	b := f64(mem, lat0, nil)
	c := f64(mem, lon1, []bool{true, false, true, true, true})
	d := f64(mem, lat1, nil)
	defer releaseAll(a, b, c, d)

	out, err := newFunc(mem, domain.NullPropagate).Call(a, b, c, d)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, 5, out.Len())
	assert.Equal(t, 2, out.NullN())
	assert.True(t, out.IsNull(1))
	assert.True(t, out.IsNull(4))

	dist := out.(*array.Float64)
	for _, i := range []int{0, 2, 3} {
		assert.Equal(t, haversine.Distance(lon0[i], lat0[i], lon1[i], lat1[i]), dist.Value(i), "row %d", i)
	}
}

func TestCallWidensNumericTypes(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ib := array.NewInt32Builder(mem)
	ib.AppendValues([]int32{0, 10, -74}, nil)
	lonA := ib.NewArray()
	ib.Release()

	fb := array.NewFloat32Builder(mem)
	fb.AppendValues([]float32{0, 10, 40.5}, nil)
	latA := fb.NewArray()
	fb.Release()

	ub := array.NewUint8Builder(mem)
	ub.AppendValues([]uint8{1, 11, 2}, nil)
	lonB := ub.NewArray()
	ub.Release()

	latB := f64(mem, []float64{0, 10, 48.5}, nil)
	defer releaseAll(lonA, latA, lonB, latB)

	out, err := newFunc(mem, domain.NullReject).Call(lonA, latA, lonB, latB)
	require.NoError(t, err)
	defer out.Release()

	dist := out.(*array.Float64)
	assert.Equal(t, haversine.Distance(0, 0, 1, 0), dist.Value(0))
	assert.Equal(t, haversine.Distance(10, 10, 11, 10), dist.Value(1))
	assert.Equal(t, haversine.Distance(-74, 40.5, 2, 48.5), dist.Value(2))
}

func TestToFloat64ArrayWide64BitIntegers(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ib := array.NewInt64Builder(mem)
	ib.AppendValues([]int64{-180, 1<<53 + 1, math.MinInt64}, nil)
	ints := ib.NewArray()
	ib.Release()
	defer ints.Release()

	ub := array.NewUint64Builder(mem)
	ub.AppendValues([]uint64{90, math.MaxUint64}, nil)
	uints := ub.NewArray()
	ub.Release()
	defer uints.Release()

	adapter := NewAdapter(mem, domain.NullReject)

	values, valid, err := adapter.ToFloat64Array("lon0", ints)
	require.NoError(t, err)
	assert.Nil(t, valid)
	assert.Equal(t, []float64{-180, 1 << 53, math.MinInt64}, values)

	values, _, err = adapter.ToFloat64Array("lat0", uints)
	require.NoError(t, err)
	assert.Equal(t, []float64{90, math.MaxUint64}, values)
}

func TestCallRejectsNonNumeric(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sb := array.NewStringBuilder(mem)
	sb.AppendValues([]string{"a", "b", "c", "d", "e"}, nil)
	text := sb.NewArray()
	sb.Release()

	a, c, d := f64(mem, lon0, nil), f64(mem, lon1, nil), f64(mem, lat1, nil)
	defer releaseAll(a, text, c, d)

	out, err := newFunc(mem, domain.NullReject).Call(a, text, c, d)
	assert.Nil(t, out)
	require.ErrorIs(t, err, domain.ErrInputConversion)

	var convErr *domain.ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, domain.ColLat0, convErr.Column)
	assert.Equal(t, "utf8", convErr.Type)
}

func TestCallEmpty(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a, b, c, d := f64(mem, nil, nil), f64(mem, nil, nil), f64(mem, nil, nil), f64(mem, nil, nil)
	defer releaseAll(a, b, c, d)

	out, err := newFunc(mem, domain.NullReject).Call(a, b, c, d)
	require.NoError(t, err)
	defer out.Release()
	assert.Zero(t, out.Len())
}

func inputRecord(mem memory.Allocator, names ColumnNames) arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: names.Lon0, Type: arrow.PrimitiveTypes.Float64},
		{Name: names.Lat0, Type: arrow.PrimitiveTypes.Float64},
		{Name: names.Lon1, Type: arrow.PrimitiveTypes.Float64},
		{Name: names.Lat1, Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	ib := array.NewInt64Builder(mem)
	defer ib.Release()
	ib.AppendValues([]int64{1, 2, 3, 4, 5}, nil)
	ids := ib.NewArray()

	cols := []arrow.Array{ids, f64(mem, lon0, nil), f64(mem, lat0, nil), f64(mem, lon1, nil), f64(mem, lat1, nil)}
	defer releaseAll(cols...)

	return array.NewRecord(schema, cols, int64(len(lon0)))
}

func TestCallRecordNamedColumns(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	names, err := ParseColumnNames("x0, y0, x1, y1")
	require.NoError(t, err)

	rec := inputRecord(mem, names)
	defer rec.Release()

	out, err := newFunc(mem, domain.NullReject).CallRecord(rec, names)
	require.NoError(t, err)
	defer out.Release()

	require.EqualValues(t, 1, out.NumCols())
	require.EqualValues(t, 5, out.NumRows())
	assert.Equal(t, DistanceColumn, out.ColumnName(0))

	dist := out.Column(0).(*array.Float64)
	assert.Equal(t, haversine.Distance(lon0[0], lat0[0], lon1[0], lat1[0]), dist.Value(0))
}

func TestCallRecordMissingColumn(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := inputRecord(mem, DefaultColumnNames())
	defer rec.Release()

	out, err := newFunc(mem, domain.NullReject).CallRecord(rec, ColumnNames{Lon0: "lon0", Lat0: "lat0", Lon1: "lon1", Lat1: "nope"})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
}

func TestCallStreamRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	names := DefaultColumnNames()
	rec := inputRecord(mem, names)

	var in bytes.Buffer
	require.NoError(t, WriteRecords(&in, rec.Schema(), []arrow.Record{rec, rec}, mem))
	rec.Release()

	var out bytes.Buffer
	rows, err := newFunc(mem, domain.NullReject).CallStream(&in, &out, names)
	require.NoError(t, err)
	assert.EqualValues(t, 10, rows)

	recs, err := ReadRecords(&out, mem)
	require.NoError(t, err)
	defer ReleaseRecords(recs)

	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.True(t, r.Schema().Equal(OutputSchema()))
		assert.EqualValues(t, 5, r.NumRows())
	}
}

func TestCallStreamFailsWithoutOutput(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := inputRecord(mem, DefaultColumnNames())
	var in bytes.Buffer
	require.NoError(t, WriteRecords(&in, rec.Schema(), []arrow.Record{rec}, mem))
	rec.Release()

	var out bytes.Buffer
	_, err := newFunc(mem, domain.NullReject).CallStream(&in, &out, ColumnNames{Lon0: "a", Lat0: "b", Lon1: "c", Lat1: "d"})
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
	assert.Zero(t, out.Len())
}

func TestParseColumnNames(t *testing.T) {
	names, err := ParseColumnNames("")
	require.NoError(t, err)
	assert.Equal(t, DefaultColumnNames(), names)

	_, err = ParseColumnNames("a,b,c")
	assert.Error(t, err)

	_, err = ParseColumnNames("a,,c,d")
	assert.Error(t, err)
}

func TestCallStreamInvalidInput(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := inputRecord(mem, DefaultColumnNames())
	var valid bytes.Buffer
	require.NoError(t, WriteRecords(&valid, rec.Schema(), []arrow.Record{rec}, mem))
	rec.Release()

	for name, body := range map[string][]byte{
		"empty":     nil,
		"truncated": valid.Bytes()[:6],
	} {
		var out bytes.Buffer
		_, err := newFunc(mem, domain.NullReject).CallStream(bytes.NewReader(body), &out, DefaultColumnNames())
		assert.ErrorIs(t, err, ErrInvalidStream, name)
		assert.Zero(t, out.Len(), name)
	}
}
