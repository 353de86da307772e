// Package jsoncol adapts nullable float columns ([]*float64), as decoded from
// JSON arrays or scanned from SQL, to the float64 columns of the distance function.
package jsoncol

import "haversine-udf/internal/domain"

// Adapter implements ports.ColumnAdapter[[]*float64].
type Adapter struct {
	policy domain.NullPolicy
}

func NewAdapter(policy domain.NullPolicy) *Adapter {
	return &Adapter{policy: policy}
}

func (a *Adapter) NullPolicy() domain.NullPolicy { return a.policy }

// Copy col into a dense float64 slice. A nil element is a null.
func (a *Adapter) ToFloat64Array(name string, col []*float64) ([]float64, []bool, error) {
	values := make([]float64, len(col))
	hasNull := false

	for i, v := range col {
		if v != nil {
			values[i] = *v
			continue
		}
		if a.policy == domain.NullReject {
			return nil, nil, &domain.NullValueError{Column: name, Index: i}
		}
		hasNull = true
	}

	if !hasNull {
		return values, nil, nil
	}
	valid := make([]bool, len(col))
	for i, v := range col {
		valid[i] = v != nil
	}
	return values, valid, nil
}

// Build a JSON-ready column. Invalid rows become nil and marshal as null.
func (a *Adapter) FromFloat64Array(col domain.DistanceColumn) ([]*float64, error) {
	out := make([]*float64, col.Len())
	for i := range col.Values {
		if !col.ValidAt(i) {
			continue
		}
		out[i] = &col.Values[i]
	}
	return out, nil
}

// Columns converts four JSON columns into validated coordinate columns.
func (a *Adapter) Columns(lon0, lat0, lon1, lat1 []*float64) (domain.CoordinateColumns, error) {
	n := len(lon0)
	for _, c := range []struct {
		name string
		n    int
	}{
		{domain.ColLat0, len(lat0)},
		{domain.ColLon1, len(lon1)},
		{domain.ColLat1, len(lat1)},
	} {
		if c.n != n {
			return domain.CoordinateColumns{}, &domain.LengthMismatchError{Column: c.name, Want: n, Got: c.n}
		}
	}

	var cols domain.CoordinateColumns
	var valids [4][]bool
	var err error

	if cols.Lon0, valids[0], err = a.ToFloat64Array(domain.ColLon0, lon0); err != nil {
		return domain.CoordinateColumns{}, err
	}
	if cols.Lat0, valids[1], err = a.ToFloat64Array(domain.ColLat0, lat0); err != nil {
		return domain.CoordinateColumns{}, err
	}
	if cols.Lon1, valids[2], err = a.ToFloat64Array(domain.ColLon1, lon1); err != nil {
		return domain.CoordinateColumns{}, err
	}
	if cols.Lat1, valids[3], err = a.ToFloat64Array(domain.ColLat1, lat1); err != nil {
		return domain.CoordinateColumns{}, err
	}

	cols.Valid = domain.MergeValidity(n, valids[:]...)
	return cols, nil
}
