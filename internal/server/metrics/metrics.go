// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datingapp_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datingapp_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	PhotoIntakeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datingapp_photo_intake_total",
			Help: "Photo intake outcomes (accepted, no_file, scan_rejected, upload_failed, duplicate, similar, decode_failed, cancelled, persist_failed).",
		},
		[]string{"outcome"},
	)

	ScanResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datingapp_scan_results_total",
			Help: "Malware scan results by status.",
		},
		[]string{"status"},
	)

	SimilarityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datingapp_photo_similarity_score",
			Help:    "Similarity scores computed between new and existing photos.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "datingapp_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		},
		[]string{"name"},
	)

	HubConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datingapp_hub_connections",
			Help: "Open websocket connections.",
		},
	)
)
