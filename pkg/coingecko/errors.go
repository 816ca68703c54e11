package coingecko

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/coingecko-gateway/pkg/price"
)

// ErrNormalization matches payloads that are valid JSON but do not have the
// expected shape.
var ErrNormalization = errors.New("normalization error")

// NormalizationError describes the first field that failed to match the
// expected upstream shape.
type NormalizationError struct {
	Operation string
	Path      string
	Reason    string
}

// Error implements the error interface.
func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %s: %s", e.Operation, e.Path, e.Reason)
}

// Is reports whether target is ErrNormalization.
func (e *NormalizationError) Is(target error) bool {
	return target == ErrNormalization
}

// Operation names used in OpError.
const (
	OpSearch         = "search"
	OpSearchTrending = "search_trending"
	OpPriceChart     = "price_chart"
	OpPriceOHLC      = "price_ohlc"
)

// OpError attaches operation context to a fetch or normalization error.
// Unwrap returns the original error unchanged.
type OpError struct {
	Op       string
	Query    string
	CoinID   string
	Interval price.Interval
	Err      error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	switch {
	case e.CoinID != "":
		return fmt.Sprintf("coingecko %s (coin=%s interval=%s): %v", e.Op, e.CoinID, e.Interval, e.Err)
	case e.Query != "":
		return fmt.Sprintf("coingecko %s (query=%q): %v", e.Op, e.Query, e.Err)
	default:
		return fmt.Sprintf("coingecko %s: %v", e.Op, e.Err)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *OpError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *OpError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("op", e.Op)
	if e.Query != "" {
		ev.Str("query", e.Query)
	}
	if e.CoinID != "" {
		ev.Str("coin_id", e.CoinID)
		ev.Str("interval", e.Interval.String())
	}
}
