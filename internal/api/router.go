package api

import (
	"haversine-udf/internal/api/handlers"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Logger       zerolog.Logger
	MaxBodyBytes int64
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters beyond what they are given.
func NewRouter(cfg RouterConfig, h *handlers.HaversineHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/v1/haversine", h.Distances)
	mux.HandleFunc("/v1/haversine/arrow", h.Arrow)
	mux.HandleFunc("/v1/haversine/average", h.Average)
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = limitBody(cfg.MaxBodyBytes)(handler)
	handler = recoverMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(cfg.Logger)(handler)
	return handler
}
