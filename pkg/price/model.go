// Package price defines the stable schema exposed by the gateway for coin
// search results, trending coins, price charts, and OHLC candles.
package price

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Coin identifies a coin known to the upstream market-data API.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// TrendingCoin is a Coin returned by the trending search.
type TrendingCoin struct {
	Coin
	MarketCapRank int     `json:"marketCapRank"`
	ThumbImg      string  `json:"thumbImg"`
	SmallImg      string  `json:"smallImg"`
	LargeImg      string  `json:"largeImg"`
	PriceBtc      float64 `json:"priceBtc"`
}

// Point is a single (timestampMs, value) sample. It encodes as a two-element
// JSON array.
type Point struct {
	TimestampMs int64
	Value       float64
}

// MarshalJSON implements json.Marshaler.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.TimestampMs, p.Value})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("point: expected 2 elements, got %d", len(raw))
	}
	p.TimestampMs = int64(raw[0])
	p.Value = raw[1]
	return nil
}

// Chart holds the price, market cap, and total volume series of a coin,
// each ordered ascending by timestamp as reported upstream.
type Chart struct {
	Prices       []Point `json:"prices"`
	MarketCaps   []Point `json:"marketCaps"`
	TotalVolumes []Point `json:"totalVolumes"`
}

// Candle is one OHLC bucket. It encodes as
// [timestampMs, open, high, low, close].
type Candle struct {
	TimestampMs int64
	Open        float64
	High        float64
	Low         float64
	Close       float64
}

// MarshalJSON implements json.Marshaler.
func (c Candle) MarshalJSON() ([]byte, error) {
	return json.Marshal([5]any{c.TimestampMs, c.Open, c.High, c.Low, c.Close})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Candle) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 5 {
		return fmt.Errorf("candle: expected 5 elements, got %d", len(raw))
	}
	c.TimestampMs = int64(raw[0])
	c.Open, c.High, c.Low, c.Close = raw[1], raw[2], raw[3], raw[4]
	return nil
}

// OHLCPrice is a candle series ordered ascending by timestamp.
type OHLCPrice []Candle

// Interval is the time window of a chart or OHLC request. Its value is the
// number of days requested from upstream.
type Interval int

const (
	// Day requests one day of data.
	Day Interval = 1

	// Week requests seven days of data.
	Week Interval = 7

	// Month requests thirty days of data.
	Month Interval = 30
)

// Days returns the upstream "days" query parameter for the interval.
func (i Interval) Days() int {
	return int(i)
}

// Valid reports whether i is one of the enumerated intervals.
func (i Interval) Valid() bool {
	switch i {
	case Day, Week, Month:
		return true
	default:
		return false
	}
}

func (i Interval) String() string {
	switch i {
	case Day:
		return "DAY"
	case Week:
		return "WEEK"
	case Month:
		return "MONTH"
	default:
		return "Interval(" + strconv.Itoa(int(i)) + ")"
	}
}

// ParseInterval accepts either the day count ("1", "7", "30") or the
// interval name ("day", "week", "month"), case-insensitively.
func ParseInterval(s string) (Interval, error) {
	v := strings.TrimSpace(s)
	switch strings.ToUpper(v) {
	case "DAY":
		return Day, nil
	case "WEEK":
		return Week, nil
	case "MONTH":
		return Month, nil
	}

	n, err := strconv.Atoi(v)
	if err == nil && Interval(n).Valid() {
		return Interval(n), nil
	}
	return 0, fmt.Errorf("invalid interval %q: must be one of 1, 7, 30, day, week, month", s)
}
