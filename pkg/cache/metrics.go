package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/coingecko-gateway/pkg/metrics"
)

var (
	// CacheHits tracks fresh entries served from the store
	CacheHits = promauto.With(metrics.Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// CacheMisses tracks lookups that had to compute the value
	CacheMisses = promauto.With(metrics.Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// CacheErrors tracks store errors
	CacheErrors = promauto.With(metrics.Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_errors_total",
			Help: "Total number of cache store errors",
		},
		[]string{"operation"}, // "get", "set", "encode", "decode"
	)

	// CacheCoalesced tracks misses that shared another caller's compute
	CacheCoalesced = promauto.With(metrics.Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_cache_coalesced_total",
			Help: "Total number of cache misses served by an in-flight compute",
		},
	)
)
