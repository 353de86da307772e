package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Distance function metrics
	RowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haversine_rows_total",
			Help: "Total number of coordinate rows mapped to distances",
		},
		[]string{"transport"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "haversine_operation_duration_seconds",
			Help:    "Duration of timed operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"op", "status"},
	)

	ResultCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haversine_result_cache_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordHTTPMetrics(method, path string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordOperation(op string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	OperationDuration.WithLabelValues(op, status).Observe(duration.Seconds())
}
