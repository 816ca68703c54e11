package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrTransport matches network and connection failures.
	ErrTransport = errors.New("transport error")

	// ErrUpstreamStatus matches non-2xx upstream responses.
	ErrUpstreamStatus = errors.New("upstream status error")

	// ErrDecode matches bodies that are not valid JSON.
	ErrDecode = errors.New("decode error")

	// ErrInvalidRequest matches requests that could not be built.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassClient represents the remaining 4xx errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassDecode represents malformed response bodies.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassRequest represents requests that were never sent.
	ErrorClassRequest ErrorClass = "request"
)

// FetchError is returned by a single upstream fetch.
type FetchError struct {
	Class      ErrorClass
	URL        string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	msg := fmt.Sprintf("upstream %s error", e.Class)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is maps the error class onto the package sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Class == ErrorClassNetwork
	case ErrUpstreamStatus:
		return e.Class == ErrorClassRateLimit || e.Class == ErrorClassClient || e.Class == ErrorClassServer
	case ErrDecode:
		return e.Class == ErrorClassDecode
	case ErrInvalidRequest:
		return e.Class == ErrorClassRequest
	default:
		return false
	}
}

// Retryable reports whether another attempt could succeed. Decode and
// request errors never are.
func (e *FetchError) Retryable() bool {
	return e.Class != ErrorClassDecode && e.Class != ErrorClassRequest
}

// StatusCode returns the upstream status code carried by err, or 0.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// ClassOf returns the class of err, or "" when err is not a FetchError.
func ClassOf(err error) ErrorClass {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Class
	}
	return ""
}

// classifyStatus categorizes a non-2xx status code.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		// 1xx/3xx that survived the redirect policy
		return ErrorClassClient
	}
}
