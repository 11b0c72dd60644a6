// Package apperrors defines the error taxonomy shared by services and
// handlers. Expected business failures (insufficient points/stock, illegal
// state transitions) are values of these kinds, not panics.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for HTTP mapping and caller dispatch
type Kind string

const (
	KindValidation   Kind = "validation"   // malformed/out-of-range input, no mutation occurred
	KindNotFound     Kind = "not_found"    // entity absent or not owned by claimed parent
	KindConflict     Kind = "conflict"     // state-machine transition not legal from current state
	KindInsufficient Kind = "insufficient" // points or inventory short of the request
	KindExternal     Kind = "external"     // gateway transport/timeout; retryable by the caller
)

// Error carries a kind plus a human-readable reason
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Insufficient(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInsufficient, Message: fmt.Sprintf(format, args...)}
}

// External wraps a gateway transport failure; local state is left pending.
func External(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindExternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, or "" for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
