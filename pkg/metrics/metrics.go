// Package metrics exposes the Prometheus registry used by the gateway.
// Metrics are defined next to the code that records them (pkg/client,
// pkg/cache, internal/server) and registered on Registry via promauto.With.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all gateway metrics are added to.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Upstream Metrics (pkg/client):
//   - gateway_upstream_requests_total{status} (Counter): Upstream requests by HTTP status
//   - gateway_upstream_request_duration_seconds (Histogram): Upstream request duration
//   - gateway_upstream_retries_total{error_class} (Counter): Retry attempts by error class
//   - gateway_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - gateway_upstream_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - gateway_cache_hits_total (Counter): Fresh entries served from the store
//   - gateway_cache_misses_total (Counter): Lookups that computed the value
//   - gateway_cache_errors_total{operation} (Counter): Store and codec errors
//   - gateway_cache_coalesced_total (Counter): Misses that shared an in-flight compute
//
// HTTP Metrics (internal/server):
//   - gateway_http_requests_total{route, code} (Counter): Served requests by route and status
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(gateway_cache_hits_total[5m])) /
//   (sum(rate(gateway_cache_hits_total[5m])) + sum(rate(gateway_cache_misses_total[5m])))
//
//   # Upstream Rate Limiting
//   rate(gateway_upstream_requests_total{status="429"}[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(gateway_upstream_request_duration_seconds_bucket[5m]))
