package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindStructuralDegradation Kind = "STRUCTURAL_DEGRADATION" // 422, usually a warning
	KindConfiguration         Kind = "CONFIGURATION"          // 500
	KindInvalidInput          Kind = "INVALID_INPUT"          // 400
	KindNotFound              Kind = "NOT_FOUND"              // 404
	KindProvider              Kind = "PROVIDER"               // 502
	KindProviderUnavailable   Kind = "PROVIDER_UNAVAILABLE"   // 503
	KindValidation            Kind = "VALIDATION_FAILED"      // 422
)

// Error is a structured error with a kind, status and optional details.
type Error struct {
	Kind      Kind
	Op        string
	Status    int
	Message   string
	Retryable bool
	Details   map[string]any
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Degradation records a span the parser recovered from. Line is 1-based.
func Degradation(reason string, line int, msg string) *Error {
	return &Error{
		Kind:    KindStructuralDegradation,
		Status:  http.StatusUnprocessableEntity,
		Message: msg,
		Details: map[string]any{"reason": reason, "line": line},
	}
}

// NewConfiguration reports an unknown strategy, provider or missing credential.
func NewConfiguration(op, msg string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Op:      op,
		Status:  http.StatusInternalServerError,
		Message: msg,
	}
}

// NewInvalidInput reports a caller error.
func NewInvalidInput(op, msg string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Op:      op,
		Status:  http.StatusBadRequest,
		Message: msg,
	}
}

// NewNotFound reports a missing section, chapter, draft or job.
func NewNotFound(what string, id any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s not found: %v", what, id),
		Details: map[string]any{"identifier": id},
	}
}

// NewProvider wraps a backend failure. 429 and 5xx responses are retryable.
// Status 0 is a transport failure with no response, retryable unless the
// caller cancelled it.
func NewProvider(op string, status int, err error) *Error {
	retryable := status == http.StatusTooManyRequests || status >= 500
	if status == 0 {
		retryable = !errors.Is(err, context.Canceled)
	}
	return &Error{
		Kind:      KindProvider,
		Op:        op,
		Status:    http.StatusBadGateway,
		Retryable: retryable,
		Details:   map[string]any{"upstream_status": status},
		Err:       err,
	}
}

// NewUnavailable reports a failed pre-flight availability check.
func NewUnavailable(provider string) *Error {
	return &Error{
		Kind:    KindProviderUnavailable,
		Status:  http.StatusServiceUnavailable,
		Message: fmt.Sprintf("provider %s is not available", provider),
		Details: map[string]any{"provider": provider},
	}
}

// NewValidation reports generated output that failed its checks.
func NewValidation(problems []string) *Error {
	return &Error{
		Kind:    KindValidation,
		Status:  http.StatusUnprocessableEntity,
		Message: fmt.Sprintf("generated content failed validation: %v", problems),
		Details: map[string]any{"problems": problems},
	}
}

// Is reports whether err (or anything it wraps) is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsRetryable reports whether err is marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// StatusOf maps err to an HTTP status, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
