package client

import (
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

// BackoffPolicy decides whether a failed fetch is retried and how long to
// wait first. The delay grows linearly: attempt n waits n*ScalingDuration.
type BackoffPolicy struct {
	// MaxRetryAttempts is the number of retries after the initial request.
	MaxRetryAttempts int

	// ScalingDuration is the backoff unit.
	ScalingDuration time.Duration

	// ExcludedStatusCodes are upstream statuses that are never retried.
	ExcludedStatusCodes []int
}

// DefaultBackoffPolicy returns the default policy: 3 retries, 1s unit, no
// excluded status codes.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxRetryAttempts: 3,
		ScalingDuration:  1 * time.Second,
	}
}

// ShouldRetry returns the wait before the next attempt and true, or false
// when the caller must give up and surface err unchanged. attempt counts
// failures so far, starting at 1.
func (p BackoffPolicy) ShouldRetry(err error, attempt int) (time.Duration, bool) {
	if attempt > p.MaxRetryAttempts {
		return 0, false
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		if !fe.Retryable() {
			return 0, false
		}
		if fe.StatusCode != 0 && slices.Contains(p.ExcludedStatusCodes, fe.StatusCode) {
			log.Debug().
				Int("attempt", attempt).
				Int("status", fe.StatusCode).
				Msg("Status code excluded from retry")
			return 0, false
		}
	}

	wait := time.Duration(attempt) * p.ScalingDuration
	log.Debug().
		Int("attempt", attempt).
		Dur("backoff", wait).
		Msg("Retrying request after backoff")
	return wait, true
}
