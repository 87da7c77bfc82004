// Package apperrors defines the error taxonomy shared by controllers and
// services. The central Fiber error handler maps these to HTTP statuses.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError is bad or missing caller input, rejected before any
// provider or store side effect.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// AuthenticationError is an untrusted payload: a webhook whose signature
// did not verify, or a bad credential.
type AuthenticationError struct {
	Msg string
	Err error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// ProviderError is a failed call to the external payment provider. Nothing
// was written locally; the caller may retry the whole operation.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

// PersistenceError is a failed store write, possibly after an external side
// effect already happened. It is logged with enough context to reconcile
// manually.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }
