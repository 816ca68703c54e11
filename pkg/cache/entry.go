package cache

import (
	"bytes"
	"encoding/json"
	"time"
)

// Entry is the envelope persisted for every cached value.
type Entry struct {
	// Data is the JSON-encoded value.
	Data json.RawMessage `json:"data"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when the value was computed.
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry creates an entry cached at now that expires after ttl.
func NewEntry(data []byte, now time.Time, ttl time.Duration) *Entry {
	return &Entry{
		Data:     data,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired reports whether the entry is stale at now.
func (e *Entry) IsExpired(now time.Time) bool {
	return !now.Before(e.Expires)
}

// TTL returns the time left until expiration at now.
// Returns 0 if already expired.
func (e *Entry) TTL(now time.Time) time.Duration {
	ttl := e.Expires.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// IsEmpty reports whether the entry holds no value. A JSON null counts as
// empty.
func (e *Entry) IsEmpty() bool {
	data := bytes.TrimSpace(e.Data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}
