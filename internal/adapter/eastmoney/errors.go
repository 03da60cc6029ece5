package eastmoney

import (
	"fmt"
	"net/http"
)

// MalformedNumberError is returned when a numeric field holds text that is not a number
type MalformedNumberError struct {
	Value string
}

func (e *MalformedNumberError) Error() string {
	return fmt.Sprintf("malformed number %q", e.Value)
}

// ResponseFormatError is returned when a body is neither a bare nor a callback-wrapped JSON document
type ResponseFormatError struct {
	Reason  string
	Snippet string // Leading bytes of the offending body
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("unexpected response format: %s (body starts with %q)", e.Reason, e.Snippet)
}

// FetchTimeoutError is returned when a page request times out
type FetchTimeoutError struct {
	Code string
	Page int
	Err  error
}

func (e *FetchTimeoutError) Error() string {
	return fmt.Sprintf("timed out fetching %s page %d: %v", e.Code, e.Page, e.Err)
}

func (e *FetchTimeoutError) Unwrap() error { return e.Err }

// TransportError is returned for network failures and non-2xx responses
// StatusCode is zero when no response was received
type TransportError struct {
	Code       string
	Page       int
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s page %d: unexpected status code: %d", e.Code, e.Page, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s page %d: %v", e.Code, e.Page, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// retryable reports whether a second attempt at the same page could succeed
func retryable(err error) bool {
	switch e := err.(type) {
	case *FetchTimeoutError:
		return true
	case *TransportError:
		if e.StatusCode == 0 {
			return true
		}
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

func snippet(body []byte) string {
	const max = 64
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
