package client

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryingFetcher wraps a Fetcher with a BackoffPolicy.
type RetryingFetcher struct {
	next   Fetcher
	policy BackoffPolicy
}

// NewRetryingFetcher creates a fetcher that retries next according to policy.
func NewRetryingFetcher(next Fetcher, policy BackoffPolicy) *RetryingFetcher {
	return &RetryingFetcher{next: next, policy: policy}
}

// Fetch calls the wrapped fetcher until it succeeds or the policy gives up,
// in which case the last error is returned unchanged. Waiting between
// attempts only blocks the calling goroutine and stops as soon as ctx is
// done.
func (r *RetryingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		body, err := r.next.Fetch(ctx, url)
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("url", url).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return body, nil
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		}

		errClass := string(ClassOf(err))
		wait, retry := r.policy.ShouldRetry(err, attempt)
		if !retry {
			if attempt > 1 {
				upstreamRetryExhaustedTotal.WithLabelValues(errClass).Inc()
				log.Warn().
					Err(err).
					Str("url", url).
					Int("attempts", attempt).
					Msg("Retry attempts exhausted")
			}
			return nil, err
		}

		upstreamRetriesTotal.WithLabelValues(errClass).Inc()
		upstreamRetryBackoffSeconds.WithLabelValues(errClass).Observe(wait.Seconds())

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Warn().
				Str("url", url).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return nil, fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}
}
