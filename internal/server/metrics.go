// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// labelHandler is the "handler" label value used to partition metrics by
// the logical endpoint name rather than the raw URL path.
const labelHandler = "handler"

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// ingestChunksTotal counts chunks processed by the ingest endpoints,
	// partitioned by outcome: "ok" or "error".
	ingestChunksTotal *prometheus.CounterVec

	// ingestDurationSeconds records the wall-clock duration of each ingest
	// request, including embedding and store round-trips.
	ingestDurationSeconds *prometheus.HistogramVec

	// askRequestsTotal counts completed /api/ask requests, partitioned by
	// outcome: "ok", "degraded" (generation failed), or "error".
	askRequestsTotal *prometheus.CounterVec

	// askDurationSeconds records the wall-clock duration of each /api/ask
	// request from receipt to response.
	askDurationSeconds *prometheus.HistogramVec

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, handler name, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default —
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		ingestChunksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingester",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total number of chunks processed by the ingest endpoints, partitioned by outcome.",
		}, []string{"outcome"}),

		ingestDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ingester",
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of ingest requests, including embedding and store round-trips.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),

		askRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingester",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total number of /api/ask requests completed, partitioned by outcome.",
		}, []string{"outcome"}),

		askDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ingester",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of /api/ask requests from receipt to response.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingester",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ingester",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}
