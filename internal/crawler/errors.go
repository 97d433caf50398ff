package crawler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Transport errors.
var (
	// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrResponseTooLarge     = errors.New("response exceeds buffer limit")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrSheetNotFound        = errors.New("sheet not found")
)

// FetchError describes a failed remote call. It is the transient error of a
// single strategy; callers move on to the next strategy.
type FetchError struct {
	Err        error
	Op         string
	URL        string
	Message    string
	StatusCode int
	Attempts   int
}

func (e *FetchError) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Op)

	if e.URL != "" {
		sb.WriteString(" ")
		sb.WriteString(e.URL)
	}

	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": status %d", e.StatusCode)
	}

	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}

	if e.Err != nil && !errors.Is(e.Err, ErrUnexpectedStatusCode) {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same call may succeed.
func (e *FetchError) Retryable() bool {
	if e.StatusCode == 0 {
		return e.Err != nil && !errors.Is(e.Err, ErrMalformedResponse) && !errors.Is(e.Err, ErrResponseTooLarge)
	}

	return isRetryableStatus(e.StatusCode)
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}

	return 0
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	// Retry on temporary failures
	switch statusCode {
	case http.StatusServiceUnavailable: // 503
		return true
	case http.StatusGatewayTimeout: // 504
		return true
	case http.StatusTooManyRequests: // 429
		return true
	case http.StatusRequestTimeout: // 408
		return true
	}

	return false
}
