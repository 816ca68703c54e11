// Package testutil provides testing utilities for the gateway.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Canned upstream payloads.
const (
	SearchBody = `{"coins":[
		{"id":"coin-id-1","name":"coin-name-1","symbol":"coin-symbol-1","thumb":"url-1","api_symbol":"api-symbol-1","large":"url-large-1","market_cap_rank":1},
		{"id":"coin-id-2","name":"coin-name-2","symbol":"coin-symbol-2","thumb":"url-2","api_symbol":"api-symbol-2","large":"url-large-2","market_cap_rank":2}
	]}`

	TrendingBody = `{"coins":[
		{"item":{"id":"coin-id-1","name":"coin-name-1","symbol":"coin-symbol-1","thumb":"url-1","price_btc":0.1234,"large":"url-large-1","small":"url-small-1","market_cap_rank":1,"score":11,"slug":"slug-1"}},
		{"item":{"id":"coin-id-2","name":"coin-name-2","symbol":"coin-symbol-2","thumb":"url-2","price_btc":0.5678,"large":"url-large-2","small":"url-small-2","market_cap_rank":2,"score":2,"slug":"slug-2"}}
	]}`

	ChartBody = `{
		"prices":[[1111,5.67],[1112,5.68],[1113,5.69]],
		"market_caps":[[1111,9999],[1112,9999.9],[1113,9999.99]],
		"total_volumes":[[1111,8888],[1112,8888.8],[1113,8888.88]]
	}`

	OHLCBody = `[[1111,5.5,6.8,3.49,5.67],[1112,5.6,6.9,3.5,5.68],[1113,5.62,6.7,3.4,6]]`
)

// MockResponse defines the behavior for a mock upstream response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCoinGecko is a configurable mock of the upstream API.
type MockCoinGecko struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	counts   map[string]int

	requestCount int
	requestURIs  []string
}

// NewMockCoinGecko starts a mock upstream. Unknown paths answer 404.
func NewMockCoinGecko() *MockCoinGecko {
	mock := &MockCoinGecko{
		handlers: make(map[string]http.HandlerFunc),
		counts:   make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.counts[r.URL.Path]++
		mock.requestURIs = append(mock.requestURIs, r.URL.RequestURI())
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"coin not found"}`))
	}))

	return mock
}

// URL returns the mock server URL, usable as the upstream base URL.
func (m *MockCoinGecko) URL() string {
	return m.server.URL
}

// Client returns an HTTP client wired to the mock server.
func (m *MockCoinGecko) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the mock server.
func (m *MockCoinGecko) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCoinGecko) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.counts = make(map[string]int)
	m.requestURIs = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCoinGecko) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockCoinGecko) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, resp.write)
}

// SetSequence answers a path with the given responses in order; the last one
// repeats once the sequence is used up.
func (m *MockCoinGecko) SetSequence(path string, resps ...MockResponse) {
	var mu sync.Mutex
	next := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := resps[next]
		if next < len(resps)-1 {
			next++
		}
		mu.Unlock()
		resp.write(w, r)
	})
}

// RequestCount returns the number of requests made to the server.
func (m *MockCoinGecko) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests made to path.
func (m *MockCoinGecko) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[path]
}

// RequestURIs returns the request URIs (path and query) in arrival order.
func (m *MockCoinGecko) RequestURIs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requestURIs...)
}

func (resp MockResponse) write(w http.ResponseWriter, r *http.Request) {
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewJSONResponse creates a 200 OK response carrying body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status":{"error_code":429,"error_message":"You've exceeded the Rate Limit"}}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
			"Retry-After":  "1",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
