package gateway

import (
	"strconv"

	"github.com/Sternrassler/coingecko-gateway/pkg/cache"
	"github.com/Sternrassler/coingecko-gateway/pkg/price"
)

// SearchKey is the cache key of a search for query.
func SearchKey(query string) string {
	return cache.Key{
		Segments: []string{"search"},
		Params:   map[string]string{"query": query},
	}.String()
}

// TrendingKey is the cache key of the trending list.
func TrendingKey() string {
	return cache.Key{Segments: []string{"search", "trending"}}.String()
}

// ChartKey is the cache key of the market chart of coinID over interval.
func ChartKey(coinID string, interval price.Interval) string {
	return coinKey(coinID, "chart", interval)
}

// OHLCKey is the cache key of the candles of coinID over interval.
func OHLCKey(coinID string, interval price.Interval) string {
	return coinKey(coinID, "ohlc", interval)
}

func coinKey(coinID, resource string, interval price.Interval) string {
	return cache.Key{
		Segments: []string{"coins", coinID, resource},
		Params:   map[string]string{"days": strconv.Itoa(interval.Days())},
	}.String()
}
