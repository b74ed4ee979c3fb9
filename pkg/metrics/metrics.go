package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Global metric collectors. promauto registers them with the default
// registry, so importing this package is all the setup needed.

var (
	// HttpRequestsTotal counts processed HTTP requests, labeled by method,
	// path, and status code.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terndb_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HttpRequestDuration measures server response time.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "terndb_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
			// From index lookups to long path closures.
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// TotalTriples tracks the number of triples currently stored.
	TotalTriples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terndb_triples_total",
			Help: "Total number of stored triples",
		},
	)

	// PathQueriesTotal counts path query evaluations, labeled by outcome.
	PathQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terndb_path_queries_total",
			Help: "Total number of path queries evaluated",
		},
		[]string{"status"},
	)

	// PathQueryDuration measures end-to-end path query evaluation time.
	PathQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "terndb_path_query_duration_seconds",
			Help:    "Duration of path query evaluations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
	)
)
