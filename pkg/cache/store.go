package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the store.
	ErrCacheMiss = errors.New("cache miss")

	// ErrStore matches failures of the underlying store.
	ErrStore = errors.New("cache store error")
)

// Store is the key-value backend used by the orchestrator. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. The store may drop it after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// StoreError wraps a backend failure.
type StoreError struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStore.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
