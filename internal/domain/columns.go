package domain

import "fmt"

// Column names used in error messages and record schemas.
const (
	ColLon0 = "lon0"
	ColLat0 = "lat0"
	ColLon1 = "lon1"
	ColLat1 = "lat1"
)

// Four row-aligned input columns for the distance function.
// Valid marks rows where every input is non-null; a nil Valid means all rows are valid.
type CoordinateColumns struct {
	Lon0  []float64
	Lat0  []float64
	Lon1  []float64
	Lat1  []float64
	Valid []bool
}

// Return the row count, taken from the first column.
func (c CoordinateColumns) Len() int { return len(c.Lon0) }

// Validate checks that all columns share one length.
// It must succeed before any indexed traversal of the columns.
func (c CoordinateColumns) Validate() error {
	n := len(c.Lon0)
	others := []struct {
		name string
		n    int
	}{
		{ColLat0, len(c.Lat0)},
		{ColLon1, len(c.Lon1)},
		{ColLat1, len(c.Lat1)},
	}
	for _, o := range others {
		if o.n != n {
			return &LengthMismatchError{Column: o.name, Want: n, Got: o.n}
		}
	}

	if c.Valid != nil && len(c.Valid) != n {
		return &LengthMismatchError{Column: "validity", Want: n, Got: len(c.Valid)}
	}

	return nil
}

// Report whether row i has all four inputs present.
func (c CoordinateColumns) ValidAt(i int) bool {
	return c.Valid == nil || c.Valid[i]
}

// MergeValidity ANDs per-column validity slices into one row validity.
// Nil slices count as all valid; the result is nil when every input is nil.
// All non-nil slices must have length n.
func MergeValidity(n int, parts ...[]bool) []bool {
	var out []bool
	for _, p := range parts {
		if p == nil {
			continue
		}
		if out == nil {
			out = make([]bool, n)
			copy(out, p)
			continue
		}
		for i, ok := range p {
			out[i] = out[i] && ok
		}
	}
	return out
}

// Build columns from row-oriented point pairs.
func ColumnsFromPairs(pairs []PointPair) CoordinateColumns {
	cols := CoordinateColumns{
		Lon0: make([]float64, len(pairs)),
		Lat0: make([]float64, len(pairs)),
		Lon1: make([]float64, len(pairs)),
		Lat1: make([]float64, len(pairs)),
	}
	for i, p := range pairs {
		cols.Lon0[i] = p.X0
		cols.Lat0[i] = p.Y0
		cols.Lon1[i] = p.X1
		cols.Lat1[i] = p.Y1
	}
	return cols
}

// Return row i as a point pair.
func (c CoordinateColumns) Row(i int) (PointPair, error) {
	if i < 0 || i >= c.Len() {
		return PointPair{}, fmt.Errorf("coordinate columns: row %d out of range [0, %d)", i, c.Len())
	}
	return PointPair{X0: c.Lon0[i], Y0: c.Lat0[i], X1: c.Lon1[i], Y1: c.Lat1[i]}, nil
}

// Ordered distances in kilometers, one per input row.
// Valid follows the same convention as CoordinateColumns.Valid.
type DistanceColumn struct {
	Values []float64
	Valid  []bool
}

func (d DistanceColumn) Len() int { return len(d.Values) }

func (d DistanceColumn) ValidAt(i int) bool {
	return d.Valid == nil || d.Valid[i]
}

// Mean returns the average of the valid values, skipping nulls like SQL avg.
// ok is false when there is no valid value.
func (d DistanceColumn) Mean() (mean float64, ok bool) {
	var sum float64
	n := 0
	for i, v := range d.Values {
		if !d.ValidAt(i) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
