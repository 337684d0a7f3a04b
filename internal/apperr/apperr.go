// Package apperr defines the error classes shared by providers, the record store
// and the API layer. Callers classify with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrTransient covers timeouts, connection failures and non-2xx provider replies.
	ErrTransient = errors.New("transient network error")
	// ErrMalformed marks a provider payload with an unexpected shape.
	ErrMalformed = errors.New("malformed response")
	// ErrNotFound marks an absent wallet or customer in the record store.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks missing or invalid caller input.
	ErrValidation = errors.New("validation error")
)

// StatusError is a non-2xx reply from an upstream provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrTransient
}

// IsAuth reports whether the provider rejected the credentials.
func (e *StatusError) IsAuth() bool {
	return e.Code == 401 || e.Code == 403
}

// Retryable reports whether the same request may succeed later.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}

func Transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
}

func Malformed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrMalformed, err)
}

func NotFound(kind, key string) error {
	return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
}

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
