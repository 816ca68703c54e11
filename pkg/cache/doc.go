// Package cache provides the cache-aside layer of the gateway.
//
// Values are stored as JSON entry envelopes under deterministic string keys
// in a Store. Two stores are provided:
//
//   - RedisStore, backed by go-redis, for deployments with several gateway
//     instances
//   - MemoryStore, a process-local map with lazy expiry
//
// # Basic Usage
//
//	store := cache.NewMemoryStore()
//	orch := cache.NewOrchestrator(store)
//
//	key := cache.Key{
//		Segments: []string{"coins", "bitcoin", "chart"},
//		Params:   map[string]string{"days": "7"},
//	}
//
//	chart, err := cache.GetOrCompute(ctx, orch, key.String(), time.Hour,
//		func(ctx context.Context) (price.Chart, error) {
//			return upstream.GetPriceChart(ctx, "bitcoin", price.Week)
//		})
//
// Failures of compute are never stored. A store that cannot be read is
// treated as a miss, and a failed write is logged and ignored, so the cache
// never turns an upstream success into an error.
//
// # Metrics
//
//   - gateway_cache_hits_total - Cache hits
//   - gateway_cache_misses_total - Cache misses (absent, expired or undecodable)
//   - gateway_cache_errors_total{operation} - Store errors ("get", "set")
//   - gateway_cache_coalesced_total - Misses served by another in-flight compute
package cache
