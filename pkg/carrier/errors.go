package carrier

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a carrier failure so callers can decide whether to retry,
// surface, or degrade.
type Kind string

const (
	// KindUnauthorized indicates bad or expired credentials. The client retries
	// exactly once after a token refresh; a second denial surfaces this kind.
	KindUnauthorized Kind = "unauthorized"

	// KindNotFound indicates an unknown waybill or order on the carrier side.
	KindNotFound Kind = "not_found"

	// KindRateLimited indicates the carrier returned 429; back off and retry.
	KindRateLimited Kind = "rate_limited"

	// KindInvalidData indicates a missing or malformed required field, either
	// from local pre-flight validation or a carrier-side field error.
	KindInvalidData Kind = "invalid_data"

	// KindUnavailable indicates a carrier 5xx or a connectivity failure.
	// Safe to retry after a delay.
	KindUnavailable Kind = "unavailable"

	// KindMisconfigured indicates missing local credentials or secrets.
	// Fatal, never retried.
	KindMisconfigured Kind = "misconfigured"
)

// Error is a typed failure from the carrier integration.
type Error struct {
	Kind       Kind
	Op         string // operation that failed, e.g. "assign_awb"
	Message    string
	StatusCode int // carrier HTTP status, 0 when local
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two carrier errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates a new carrier error.
func NewError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// WithStatusCode records the carrier HTTP status the error was derived from.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// KindOf extracts the kind from an error chain. Unknown errors map to
// KindUnavailable so callers treat them as transient rather than fatal.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnavailable
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

// Retryable reports whether a caller may retry the operation after a delay.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindUnavailable:
		return true
	}
	return false
}

// FromStatusCode translates a carrier HTTP status into a typed error.
// Connectivity failures and timeouts are handled separately by the transport
// layer (they never reach here) and map to KindUnavailable there.
func FromStatusCode(op string, status int, message string) *Error {
	var kind Kind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindUnauthorized
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindInvalidData
	case status >= 500:
		kind = KindUnavailable
	default:
		kind = KindUnavailable
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Kind: kind, Op: op, Message: message, StatusCode: status}
}
