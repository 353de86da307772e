package ports

import "haversine-udf/internal/domain"

// Port: a boundary between a host runtime's array type C and plain float64 columns.
type ColumnAdapter[C any] interface {
	// Read a host column as float64 values. The validity slice is nil when every row is valid.
	ToFloat64Array(name string, col C) ([]float64, []bool, error)
	// Build a host column from computed distances. Invalid rows become host nulls.
	FromFloat64Array(col domain.DistanceColumn) (C, error)
}

// Port: a columnar distance function invoked with host arrays.
type ColumnFunc[C any] interface {
	Call(lon0, lat0, lon1, lat1 C) (C, error)
}
