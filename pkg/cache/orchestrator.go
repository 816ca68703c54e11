package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Orchestrator implements cache-aside lookups over a Store.
type Orchestrator struct {
	store    Store
	now      func() time.Time
	logger   zerolog.Logger
	coalesce bool
	group    singleflight.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source used for entry expiry.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithLogger sets the logger used for store failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithCoalescing makes concurrent misses for the same key share a single
// compute call. The shared call runs with the context of the first caller.
func WithCoalescing(enabled bool) Option {
	return func(o *Orchestrator) {
		o.coalesce = enabled
	}
}

// NewOrchestrator creates an orchestrator on top of store.
func NewOrchestrator(store Store, opts ...Option) *Orchestrator {
	if store == nil {
		panic("cache store cannot be nil")
	}

	o := &Orchestrator{
		store:  store,
		now:    time.Now,
		logger: log.With().Str("component", "cache").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GetOrCompute returns the fresh value cached under key or, on a miss, the
// result of compute, which is then stored for ttl. Errors from compute are
// returned as-is and never cached. Store failures never fail the call.
// A non-positive ttl bypasses the store entirely.
func GetOrCompute[T any](ctx context.Context, o *Orchestrator, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if ttl <= 0 {
		return compute(ctx)
	}

	if value, ok := lookup[T](ctx, o, key); ok {
		CacheHits.Inc()
		return value, nil
	}
	CacheMisses.Inc()

	if !o.coalesce {
		return computeAndStore(ctx, o, key, ttl, compute)
	}

	res, err, shared := o.group.Do(key, func() (any, error) {
		return computeAndStore(ctx, o, key, ttl, compute)
	})
	if shared {
		CacheCoalesced.Inc()
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// lookup reports a hit only for a decodable, non-empty, unexpired entry.
func lookup[T any](ctx context.Context, o *Orchestrator, key string) (T, bool) {
	var zero T

	raw, err := o.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			CacheErrors.WithLabelValues("get").Inc()
			o.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to upstream")
		}
		return zero, false
	}
	if isEmptyValue(raw) {
		return zero, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		CacheErrors.WithLabelValues("decode").Inc()
		o.logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		return zero, false
	}
	if entry.IsEmpty() {
		return zero, false
	}
	now := o.now()
	if entry.IsExpired(now) {
		o.logger.Debug().Str("key", key).Time("expires", entry.Expires).Msg("Cache entry expired")
		return zero, false
	}

	var value T
	if err := json.Unmarshal(entry.Data, &value); err != nil {
		CacheErrors.WithLabelValues("decode").Inc()
		o.logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache value")
		return zero, false
	}

	o.logger.Debug().Str("key", key).Dur("ttl", entry.TTL(now)).Msg("Cache hit")
	return value, true
}

func computeAndStore[T any](ctx context.Context, o *Orchestrator, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		CacheErrors.WithLabelValues("encode").Inc()
		o.logger.Warn().Err(err).Str("key", key).Msg("Cannot encode value for cache")
		return value, nil
	}

	entry := NewEntry(data, o.now(), ttl)
	if entry.IsEmpty() {
		return value, nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("encode").Inc()
		o.logger.Warn().Err(err).Str("key", key).Msg("Cannot encode cache entry")
		return value, nil
	}

	// Writes are not cancelled with the caller.
	if err := o.store.Set(context.WithoutCancel(ctx), key, raw, ttl); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		o.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		return value, nil
	}

	o.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cache entry stored")
	return value, nil
}

func isEmptyValue(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
