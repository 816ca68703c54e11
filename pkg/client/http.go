package client

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the per-request timeout used when none is configured.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRedirects is the redirect cap used when none is configured.
	DefaultMaxRedirects = 5
)

// NewHTTPClient returns an *http.Client with a per-request timeout that
// follows at most maxRedirects redirects.
func NewHTTPClient(timeout time.Duration, maxRedirects int) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRedirects < 0 {
		maxRedirects = DefaultMaxRedirects
	}

	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}
