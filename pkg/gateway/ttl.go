package gateway

import (
	"time"

	"github.com/Sternrassler/coingecko-gateway/pkg/price"
)

// Cache lifetimes per resource.
const (
	// SearchTTL applies to search results.
	SearchTTL = 24 * time.Hour

	// TrendingTTL applies to the trending list.
	TrendingTTL = 24 * time.Hour

	// DayPriceTTL applies to 1-day chart and OHLC data.
	DayPriceTTL = 300 * time.Second

	// LongPriceTTL applies to 7-day and 30-day chart and OHLC data.
	LongPriceTTL = 3600 * time.Second

	// FallbackPriceTTL applies to any other interval.
	FallbackPriceTTL = 10 * time.Second
)

// PriceTTL returns the cache lifetime of chart and OHLC data for interval.
func PriceTTL(interval price.Interval) time.Duration {
	switch interval {
	case price.Day:
		return DayPriceTTL
	case price.Week, price.Month:
		return LongPriceTTL
	default:
		return FallbackPriceTTL
	}
}
