// Package resilience provides retry and circuit breaker patterns for calls
// to the external compound database.
package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
)

// TransientError marks a lookup failure that is safe to retry: the service
// was unreachable, rate-limited, or answered with a malformed payload. A
// compound that is genuinely absent from the database is never transient.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as retryable, with the HTTP status that caused
// it when one exists (0 otherwise).
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether the error chain indicates a retryable failure.
// Per-call deadline expiry counts as transient; cancellation of the whole
// request does not (the retry loop checks the caller's context separately).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Wrapped transport errors from the HTTP client lose their type.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused",
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"unexpected eof",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether an HTTP status from the compound
// database should be retried rather than treated as a definitive answer.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
