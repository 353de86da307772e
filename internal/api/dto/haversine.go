package dto

// Four coordinate columns in degrees. A null element is a null input row.
type HaversineRequest struct {
	Lon0 []*float64 `json:"lon0"`
	Lat0 []*float64 `json:"lat0"`
	Lon1 []*float64 `json:"lon1"`
	Lat1 []*float64 `json:"lat1"`
}

type HaversineResponse struct {
	DistancesKm []*float64 `json:"distances_km"`
	Count       int        `json:"count"`
}

type AverageRequest struct {
	Method string `json:"method"`
	HaversineRequest
}

type AverageResponse struct {
	Method    string  `json:"method"`
	AverageKm float64 `json:"average_km"`
	Count     int     `json:"count"`
	Cached    bool    `json:"cached"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
