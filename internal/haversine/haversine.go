// Package haversine computes great-circle distances on a spherical Earth.
package haversine

import "math"

// EarthRadiusKm is the sphere radius used for every distance.
const EarthRadiusKm = 6372.8

// Func is a scalar distance kernel over one coordinate pair, in degrees.
// Implementations must be pure so the column mappers can run them in any order.
type Func func(lon0, lat0, lon1, lat1 float64) float64

// The factor is folded first so that no finite input overflows.
func radians(deg float64) float64 { return deg * (math.Pi / 180.0) }

// CentralAngle returns the angle in radians between two points given in degrees.
//
// The haversine term is clamped into [0, 1] before sqrt and asin, because
// rounding can push it just outside the domain for equal or antipodal points.
func CentralAngle(lon0, lat0, lon1, lat1 float64) float64 {
	p0Lat := radians(lat0)
	p1Lat := radians(lat1)

	deltaLat := p0Lat - p1Lat
	deltaLon := radians(lon0) - radians(lon1)

	sinLat := math.Sin(deltaLat / 2)
	sinLon := math.Sin(deltaLon / 2)
	a := sinLat*sinLat + math.Cos(p0Lat)*math.Cos(p1Lat)*sinLon*sinLon
	a = math.Min(math.Max(a, 0), 1)

	return 2 * math.Asin(math.Sqrt(a))
}

// Distance returns the haversine distance in kilometers between
// (lon0, lat0) and (lon1, lat1). Swapping the two points gives the same result.
func Distance(lon0, lat0, lon1, lat1 float64) float64 {
	return EarthRadiusKm * CentralAngle(lon0, lat0, lon1, lat1)
}
