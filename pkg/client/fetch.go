// Package client implements the upstream fetch pipeline: a single-attempt
// HTTP fetcher, a linear backoff policy, and a retrying fetcher that combines
// the two.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/tidwall/gjson"
)

const (
	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "coingecko-gateway/0.1.0"

	// maxBodyBytes bounds decoded upstream bodies.
	maxBodyBytes = 32 << 20

	// maxErrorSnippet bounds the body excerpt kept on status errors.
	maxErrorSnippet = 512
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher fetches a URL and returns its JSON body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher performs exactly one GET per Fetch call and never retries.
type HTTPFetcher struct {
	doer      Doer
	userAgent string
}

// NewHTTPFetcher creates a fetcher on top of doer.
func NewHTTPFetcher(doer Doer, userAgent string) *HTTPFetcher {
	if doer == nil {
		doer = NewHTTPClient(DefaultTimeout, DefaultMaxRedirects)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{doer: doer, userAgent: userAgent}
}

// Fetch issues a GET to url and returns the body once it is known to be
// valid JSON. Failures are returned as *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Class: ErrorClassRequest, URL: url, Message: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("User-Agent", f.userAgent)

	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	resp, err := f.doer.Do(req)
	if err != nil {
		upstreamRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &FetchError{Class: ErrorClassNetwork, URL: url, Err: err}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	body, err := readBody(resp)
	if err != nil {
		return nil, &FetchError{Class: ErrorClassNetwork, URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Class:      classifyStatus(resp.StatusCode),
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    statusMessage(resp.Status, body),
		}
	}

	if !gjson.ValidBytes(body) {
		upstreamRequestsTotal.WithLabelValues("decode_error").Inc()
		return nil, &FetchError{
			Class:      ErrorClassDecode,
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    "invalid JSON body",
		}
	}

	return body, nil
}

// readBody reads the response body, decoding br and gzip content encodings.
func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	var reader io.Reader
	switch encoding {
	case "", "identity":
		return raw, nil
	case "br":
		reader = brotli.NewReader(bytes.NewReader(raw))
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}

	decoded, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", encoding, err)
	}
	return decoded, nil
}

func statusMessage(status string, body []byte) string {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxErrorSnippet {
		snippet = snippet[:maxErrorSnippet]
	}
	if snippet == "" {
		return status
	}
	return status + ": " + snippet
}
