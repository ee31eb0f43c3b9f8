package custody

import (
	"fmt"
	"time"
)

// APIError represents a structured error from the custody API.
// It carries enough context to identify the failing endpoint without
// exposing internal call stacks, and tells callers whether the failure
// is worth retrying at the transport layer.
type APIError struct {
	// StatusCode is the HTTP status code returned by the custody API.
	StatusCode int

	// ErrorType categorizes the error for programmatic handling.
	// Valid values: "rate_limit", "server_error", "auth_error", "client_error".
	ErrorType string

	// Message is a human-readable description of the error.
	Message string

	// RequestID is the custody API request identifier, when returned.
	RequestID string

	// Retryable indicates whether the request may be retried.
	// True for transient failures (rate limits, server errors).
	Retryable bool

	// Method is the HTTP method of the failed request.
	Method string

	// Path is the API endpoint path of the failed request.
	Path string

	// RetryAfter is the backoff hint from the Retry-After header on
	// rate-limited responses, zero otherwise.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("custody API error [%d]: %s", e.StatusCode, e.Message)
	if e.RequestID != "" {
		msg += fmt.Sprintf(" (RequestID: %s)", e.RequestID)
	}
	if e.Method != "" && e.Path != "" {
		msg += fmt.Sprintf(" [%s %s]", e.Method, e.Path)
	}
	return msg
}

// RetryAfterHint reports the server-provided backoff, if any.
// The retry package picks this up when scheduling the next attempt.
func (e *APIError) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// Error type constants for programmatic error classification.
const (
	// ErrorTypeRateLimit indicates the request was rate-limited (HTTP 429).
	ErrorTypeRateLimit = "rate_limit"

	// ErrorTypeServerError indicates a custody-side error (HTTP 5xx).
	ErrorTypeServerError = "server_error"

	// ErrorTypeAuthError indicates an authentication failure (HTTP 401/403).
	ErrorTypeAuthError = "auth_error"

	// ErrorTypeClientError indicates an invalid request (HTTP 4xx except 429).
	ErrorTypeClientError = "client_error"
)
