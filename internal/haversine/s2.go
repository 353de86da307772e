package haversine

import "github.com/golang/geo/s2"

// S2Distance computes the same spherical distance through the S2 geometry
// library. It is used to cross-check the haversine kernel.
func S2Distance(lon0, lat0, lon1, lat1 float64) float64 {
	p0 := s2.LatLngFromDegrees(lat0, lon0)
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	return float64(p0.Distance(p1)) * EarthRadiusKm
}
