// Package errs holds the error kinds shared by stores, controllers and routes.
package errs

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrValidation marks a missing or malformed input the caller can fix.
	ErrValidation = errors.New("validation failed")
	// ErrNotFoundOrNotOwned covers both absent resources and resources owned by someone else.
	ErrNotFoundOrNotOwned = errors.New("not found or not owned")
	// ErrStorage marks a backing-store failure. It is never retried.
	ErrStorage = errors.New("storage failure")
	// ErrUnauthenticated marks a missing or rejected credential.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Error pairs a kind with a message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation returns an ErrValidation whose message is safe to show to users.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

func NotFound() error {
	return &Error{Kind: ErrNotFoundOrNotOwned, Msg: "not found or not owned"}
}

func Unauthenticated(msg string) error {
	return &Error{Kind: ErrUnauthenticated, Msg: msg}
}

// Storage wraps a store error with the failing operation and a stack trace.
// Errors that already carry a kind are returned unchanged.
func Storage(err error, op string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: ErrStorage, Msg: op, Err: pkgerrors.WithStack(err)}
}

// UserMessage returns the message of a validation error, or "" for any other error.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == ErrValidation {
		return e.Msg
	}
	return ""
}
