// Package errs defines the domain error variants the HTTP boundary maps to
// status codes. Stores and services translate persistence conflict/absence
// signals into these before any error reaches a handler.
package errs

import (
	"errors"
	"net/http"
)

// Kind classifies a domain error.
type Kind int

const (
	KindNotFound Kind = iota
	KindConflict
	KindInvalidInput
	KindUnauthorized
	KindForbidden
)

// Error is a domain error with a stable message key, e.g. "ROLE_NOT_FOUND".
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Status returns the HTTP status the boundary writes for this error.
func (e *Error) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func NotFound(message string) *Error     { return &Error{Kind: KindNotFound, Message: message} }
func Conflict(message string) *Error     { return &Error{Kind: KindConflict, Message: message} }
func InvalidInput(message string) *Error { return &Error{Kind: KindInvalidInput, Message: message} }
func Unauthorized(message string) *Error { return &Error{Kind: KindUnauthorized, Message: message} }
func Forbidden(message string) *Error    { return &Error{Kind: KindForbidden, Message: message} }

// As unwraps err into a *Error if it is one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsNotFound reports whether err is a NotFound domain error.
func IsNotFound(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindNotFound
}

// IsUnauthorized reports whether err is an Unauthorized domain error.
func IsUnauthorized(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindUnauthorized
}
