// Package apperr defines the error taxonomy shared by the repositories and
// the services built on them.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an error that carries no code.
	CodeUnknown Code = "UNKNOWN"
	// CodeUnauthenticated: a mutation was attempted with no active session.
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodeForbidden: the session is not the resource's author.
	CodeForbidden Code = "FORBIDDEN"
	// CodeValidation: a required text field is empty or malformed.
	CodeValidation Code = "VALIDATION"
	// CodeNotFound: a point lookup found no document.
	CodeNotFound Code = "NOT_FOUND"
	// CodeTransport: the remote store or auth provider call failed.
	CodeTransport Code = "TRANSPORT"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated}
	ErrForbidden       = &Error{Code: CodeForbidden}
	ErrValidation      = &Error{Code: CodeValidation}
	ErrNotFound        = &Error{Code: CodeNotFound}
	ErrTransport       = &Error{Code: CodeTransport}
)

// Error is a coded failure of a named operation.
type Error struct {
	Code    Code
	Op      string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Unauthenticated reports a mutation attempted without a session.
func Unauthenticated(op string) error {
	return &Error{Code: CodeUnauthenticated, Op: op, Message: "sign in required"}
}

// Forbidden reports a mutation by someone other than the author.
func Forbidden(op, id string) error {
	return &Error{Code: CodeForbidden, Op: op, Message: fmt.Sprintf("%s is owned by another user", id)}
}

// Validation reports an invalid field.
func Validation(op, field, msg string) error {
	return &Error{Code: CodeValidation, Op: op, Field: field, Message: msg}
}

// NotFound reports a missing document.
func NotFound(op, id string) error {
	return &Error{Code: CodeNotFound, Op: op, Message: id + " does not exist"}
}

// Transport wraps a backend failure.
func Transport(op string, err error) error {
	return &Error{Code: CodeTransport, Op: op, Err: err}
}
