// Package gateway exposes the cached market-data operations. Each operation
// looks up its cache key, falls back to the upstream client on a miss, and
// stores successful results for a resource-specific TTL.
package gateway

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/coingecko-gateway/pkg/cache"
	"github.com/Sternrassler/coingecko-gateway/pkg/client"
	"github.com/Sternrassler/coingecko-gateway/pkg/coingecko"
	"github.com/Sternrassler/coingecko-gateway/pkg/price"
)

// Upstream is the market-data source behind the cache. *coingecko.Client
// satisfies it.
type Upstream interface {
	Search(ctx context.Context, query string) ([]price.Coin, error)
	SearchTrending(ctx context.Context) ([]price.TrendingCoin, error)
	GetPriceChart(ctx context.Context, coinID string, interval price.Interval) (price.Chart, error)
	GetPriceOHLC(ctx context.Context, coinID string, interval price.Interval) (price.OHLCPrice, error)
}

// Service serves market data from the cache or, on a miss, from upstream.
type Service struct {
	upstream Upstream
	cache    *cache.Orchestrator
	logger   zerolog.Logger
}

// New creates a service.
func New(upstream Upstream, orchestrator *cache.Orchestrator, logger zerolog.Logger) *Service {
	return &Service{
		upstream: upstream,
		cache:    orchestrator,
		logger:   logger,
	}
}

// Search returns the coins matching query.
func (s *Service) Search(ctx context.Context, query string) ([]price.Coin, error) {
	coins, err := cache.GetOrCompute(ctx, s.cache, SearchKey(query), SearchTTL, func(ctx context.Context) ([]price.Coin, error) {
		return s.upstream.Search(ctx, query)
	})
	if err != nil {
		s.logFailure(err)
		return nil, err
	}
	return coins, nil
}

// SearchTrending returns the trending coins ordered by ascending score.
func (s *Service) SearchTrending(ctx context.Context) ([]price.TrendingCoin, error) {
	coins, err := cache.GetOrCompute(ctx, s.cache, TrendingKey(), TrendingTTL, s.upstream.SearchTrending)
	if err != nil {
		s.logFailure(err)
		return nil, err
	}
	return coins, nil
}

// GetPriceChart returns the market chart of coinID over interval.
func (s *Service) GetPriceChart(ctx context.Context, coinID string, interval price.Interval) (price.Chart, error) {
	chart, err := cache.GetOrCompute(ctx, s.cache, ChartKey(coinID, interval), PriceTTL(interval), func(ctx context.Context) (price.Chart, error) {
		return s.upstream.GetPriceChart(ctx, coinID, interval)
	})
	if err != nil {
		s.logFailure(err)
		return price.Chart{}, err
	}
	return chart, nil
}

// GetPriceOHLC returns the candles of coinID over interval.
func (s *Service) GetPriceOHLC(ctx context.Context, coinID string, interval price.Interval) (price.OHLCPrice, error) {
	candles, err := cache.GetOrCompute(ctx, s.cache, OHLCKey(coinID, interval), PriceTTL(interval), func(ctx context.Context) (price.OHLCPrice, error) {
		return s.upstream.GetPriceOHLC(ctx, coinID, interval)
	})
	if err != nil {
		s.logFailure(err)
		return nil, err
	}
	return candles, nil
}

// logFailure records err with its operation context. Caller cancellations
// are not upstream failures and log at warn.
func (s *Service) logFailure(err error) {
	event := s.logger.Error()
	if errors.Is(err, client.ErrContextCancelled) || errors.Is(err, context.Canceled) {
		event = s.logger.Warn()
	}

	var opErr *coingecko.OpError
	if errors.As(err, &opErr) {
		event = event.EmbedObject(opErr)
	}
	if status := client.StatusCode(err); status != 0 {
		event = event.Int("status_code", status)
	}
	if class := client.ClassOf(err); class != "" {
		event = event.Str("error_class", string(class))
	}

	event.Err(err).Msg("Upstream operation failed")
}
