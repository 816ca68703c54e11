package cache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/coingecko-gateway/pkg/metrics"
)

func TestCacheMetrics_ServedByMetricsHandler(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o := newTestOrchestrator(NewMemoryStore(), &now)

	var calls int32
	for i := 0; i < 2; i++ {
		if _, err := GetOrCompute(context.Background(), o, "metrics", time.Hour, counter(&calls, result{Name: "btc"}, nil)); err != nil {
			t.Fatalf("GetOrCompute failed: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, name := range []string{"gateway_cache_hits_total", "gateway_cache_misses_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("%s missing from metrics output", name)
		}
	}
}
