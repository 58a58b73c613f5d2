// Package apperr defines the error taxonomy surfaced to tool callers.
//
// Every error leaving the dispatcher is an *Error carrying a Kind. Messages
// are written for the caller and never include connection strings, host
// names or driver internals.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindIntegrity     Kind = "integrity"
	KindConnectivity  Kind = "connectivity"
	KindNotFound      Kind = "not_found"
	KindForbidden     Kind = "forbidden"
	KindInternal      Kind = "internal"
)

// Retryable reports whether a caller may reasonably retry the same request.
func (k Kind) Retryable() bool {
	return k == KindConnectivity
}

type Error struct {
	Kind Kind
	// Argument names the offending tool argument or column, when known.
	Argument string
	// Constraint names the violated database constraint, when known.
	Constraint string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Argument != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Argument, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Invalid builds a validation error attributed to a single argument.
func Invalid(argument, msg string) *Error {
	return &Error{Kind: KindValidation, Argument: argument, Message: msg}
}

// Forbidden reports a caller lacking the named permission code.
func Forbidden(permission string) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf("missing permission %q", permission)}
}

func NotFound(what string, id any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", what, id)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
