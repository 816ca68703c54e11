package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/coingecko-gateway/pkg/metrics"
)

// Prometheus metrics for upstream fetches.
var (
	upstreamRequestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_requests_total",
		Help: "Total upstream requests by outcome (status code, network or decode)",
	}, []string{"status"})

	upstreamRequestDuration = promauto.With(metrics.Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	upstreamRetriesTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	upstreamRetryBackoffSeconds = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_upstream_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 3, 5, 10, 30},
	}, []string{"error_class"})

	upstreamRetryExhaustedTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_retry_exhausted_total",
		Help: "Total number of fetches that gave up by error class",
	}, []string{"error_class"})
)
