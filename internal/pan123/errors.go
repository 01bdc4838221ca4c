// Package pan123 provides an HTTP client for the 123pan share, account and
// download endpoints with envelope decoding and error classification.
package pan123

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for response classification.
// Use errors.Is(err, pan123.ErrUnauthorized) to check.
var (
	ErrBadRequest    = errors.New("pan123: bad request")
	ErrUnauthorized  = errors.New("pan123: unauthorized")
	ErrForbidden     = errors.New("pan123: forbidden")
	ErrNotFound      = errors.New("pan123: not found")
	ErrThrottled     = errors.New("pan123: throttled")
	ErrServerError   = errors.New("pan123: server error")
	ErrAPI           = errors.New("pan123: api error")
	ErrNoDownloadURL = errors.New("pan123: response has no download URL")
)

// APIError wraps a sentinel error with the HTTP status, the envelope code and
// the message returned by the service.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("pan123: HTTP %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("pan123: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		if code >= http.StatusOK && code < http.StatusMultipleChoices {
			return nil
		}

		return ErrAPI
	}
}

// classifyCode maps a non-success envelope code to a sentinel. The service
// reuses HTTP-like numbers inside a 200 response for auth failures.
func classifyCode(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		return ErrAPI
	}
}

// IsRetryable reports whether err is worth another attempt: transport
// failures, throttling and server errors are; client errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}

	return errors.Is(apiErr.Err, ErrThrottled) || errors.Is(apiErr.Err, ErrServerError)
}
