// Package apperr provides typed application errors that map onto HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates rejected user input
	TypeInput Type = "INPUT_ERROR"

	// TypeNotFound indicates a missing resource
	TypeNotFound Type = "NOT_FOUND"

	// TypeUpstream indicates a failing external collaborator
	TypeUpstream Type = "UPSTREAM_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error is an application error with a category and optional context.
type Error struct {
	Type    Type           `json:"type"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds a context value and returns e.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(t Type, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap wraps cause with a category and message
func Wrap(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

// Input creates an input error
func Input(message string, cause error) *Error {
	return Wrap(TypeInput, message, cause)
}

// NotFound creates a not found error
func NotFound(resource string, id any) *Error {
	return New(TypeNotFound, fmt.Sprintf("%s not found: %v", resource, id))
}

// Upstream creates an upstream error
func Upstream(message string, cause error) *Error {
	return Wrap(TypeUpstream, message, cause)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}

// TypeOf returns the category of the first *Error in err's chain, or
// TypeInternal when there is none.
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// IsType reports whether err's chain carries an *Error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// HTTPStatus maps err onto a response status.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case TypeInput:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
