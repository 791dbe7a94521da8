package authcore

import (
	"errors"
	"fmt"
)

var (
	// ErrEmailAlreadyExists is returned when a signup or update collides
	// with an email that is already registered to a different account.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrEmailDoesNotExist is returned by the login paths when no account
	// is registered under the presented email. It is deliberately distinct
	// from ErrUserNotFound so callers can message the two cases apart.
	ErrEmailDoesNotExist = errors.New("email does not exist")
	// ErrUserNotFound is returned when a user record is absent on a
	// non-login path (get by id, update, delete).
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized is returned on password mismatch and when a session
	// key does not resolve to a live session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBackendUnavailable wraps store or cache faults that have no
	// domain-level classification. The adapter detail is attached with %v,
	// never %w, so callers match only the sentinel.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrServiceNotReady is returned when a Service method is invoked on a
	// nil or incompletely built receiver.
	ErrServiceNotReady = errors.New("service not initialized")
	// ErrValidation is the sentinel beneath every [ValidationError].
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports a rejected form field. It is produced before any
// store access; a failing form never causes a mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Unwrap yields [ErrValidation] so errors.Is(err, ErrValidation) holds.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
