// Package coingecko is the upstream client for the CoinGecko market-data
// API. Each operation builds its request URL, fetches through the retrying
// fetcher, and normalizes the payload into the price schema.
package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/coingecko-gateway/pkg/client"
	"github.com/Sternrassler/coingecko-gateway/pkg/price"
)

const (
	// DefaultBaseURL is the public CoinGecko v3 API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3/"

	// vsCurrency is the quote currency for chart and OHLC requests.
	vsCurrency = "usd"
)

// Client calls the CoinGecko API. It does not log; failures are returned
// as *OpError for the caller to record.
type Client struct {
	fetcher client.Fetcher
	baseURL string
}

// New creates a client for baseURL. The base URL always ends up with a
// trailing slash so relative paths append to it.
func New(fetcher client.Fetcher, baseURL string) (*Client, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Client{fetcher: fetcher, baseURL: baseURL}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Search returns the coins matching query.
func (c *Client) Search(ctx context.Context, query string) ([]price.Coin, error) {
	body, err := c.fetcher.Fetch(ctx, c.SearchURL(query))
	if err != nil {
		return nil, &OpError{Op: OpSearch, Query: query, Err: err}
	}

	coins, err := NormalizeSearch(body)
	if err != nil {
		return nil, &OpError{Op: OpSearch, Query: query, Err: err}
	}
	return coins, nil
}

// SearchTrending returns the trending coins ordered by ascending score.
func (c *Client) SearchTrending(ctx context.Context) ([]price.TrendingCoin, error) {
	body, err := c.fetcher.Fetch(ctx, c.TrendingURL())
	if err != nil {
		return nil, &OpError{Op: OpSearchTrending, Err: err}
	}

	coins, err := NormalizeTrending(body)
	if err != nil {
		return nil, &OpError{Op: OpSearchTrending, Err: err}
	}
	return coins, nil
}

// GetPriceChart returns the USD market chart of coinID over interval.
func (c *Client) GetPriceChart(ctx context.Context, coinID string, interval price.Interval) (price.Chart, error) {
	body, err := c.fetcher.Fetch(ctx, c.ChartURL(coinID, interval))
	if err != nil {
		return price.Chart{}, &OpError{Op: OpPriceChart, CoinID: coinID, Interval: interval, Err: err}
	}

	chart, err := NormalizeChart(body)
	if err != nil {
		return price.Chart{}, &OpError{Op: OpPriceChart, CoinID: coinID, Interval: interval, Err: err}
	}
	return chart, nil
}

// GetPriceOHLC returns the USD candles of coinID over interval.
func (c *Client) GetPriceOHLC(ctx context.Context, coinID string, interval price.Interval) (price.OHLCPrice, error) {
	body, err := c.fetcher.Fetch(ctx, c.OHLCURL(coinID, interval))
	if err != nil {
		return nil, &OpError{Op: OpPriceOHLC, CoinID: coinID, Interval: interval, Err: err}
	}

	candles, err := NormalizeOHLC(body)
	if err != nil {
		return nil, &OpError{Op: OpPriceOHLC, CoinID: coinID, Interval: interval, Err: err}
	}
	return candles, nil
}

// SearchURL builds GET {base}/search?query={q}.
func (c *Client) SearchURL(query string) string {
	return c.baseURL + "search?query=" + url.QueryEscape(query)
}

// TrendingURL builds GET {base}/search/trending.
func (c *Client) TrendingURL() string {
	return c.baseURL + "search/trending"
}

// ChartURL builds GET {base}/coins/{id}/market_chart?vs_currency=usd&days={n}.
func (c *Client) ChartURL(coinID string, interval price.Interval) string {
	return c.coinURL(coinID, "market_chart", interval)
}

// OHLCURL builds GET {base}/coins/{id}/ohlc?vs_currency=usd&days={n}.
func (c *Client) OHLCURL(coinID string, interval price.Interval) string {
	return c.coinURL(coinID, "ohlc", interval)
}

func (c *Client) coinURL(coinID, resource string, interval price.Interval) string {
	return c.baseURL + "coins/" + url.PathEscape(coinID) + "/" + resource +
		"?vs_currency=" + vsCurrency + "&days=" + strconv.Itoa(interval.Days())
}
