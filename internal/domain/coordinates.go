package domain

// Immutable geographic coordinates (longitude, latitude) in decimal degrees.
type Coordinates struct {
	Lon float64
	Lat float64
}

// One input row: two points where x is longitude and y is latitude.
// This is the row shape used by the points JSON files.
type PointPair struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Return the starting point of the pair.
func (p PointPair) From() Coordinates { return Coordinates{Lon: p.X0, Lat: p.Y0} }

// Return the ending point of the pair.
func (p PointPair) To() Coordinates { return Coordinates{Lon: p.X1, Lat: p.Y1} }
