// Package cyanerr provides the structured errors the SDK returns when a call is
// rejected locally, before or instead of reaching the platform.
package cyanerr

import (
	"errors"
	"fmt"
)

// Kind represents the category of a locally detected error.
type Kind string

const (
	// KindInvalidOperation indicates the call is not allowed in the current state.
	KindInvalidOperation Kind = "invalid_operation"
	// KindInvalidTarget indicates the referenced entity has the wrong kind.
	KindInvalidTarget Kind = "invalid_target"
	// KindNotSupported indicates a platform feature the SDK does not model.
	KindNotSupported Kind = "not_supported"
)

// Error represents a structured error with kind, message, and context.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// InvalidOperation creates an error for a call made in the wrong state.
func InvalidOperation(message string) *Error {
	return &Error{Kind: KindInvalidOperation, Message: message, Context: make(map[string]any)}
}

// InvalidTarget creates an error for an entity of the wrong kind.
func InvalidTarget(message string) *Error {
	return &Error{Kind: KindInvalidTarget, Message: message, Context: make(map[string]any)}
}

// NotSupported creates an error for an unmodelled platform feature.
func NotSupported(message string) *Error {
	return &Error{Kind: KindNotSupported, Message: message, Context: make(map[string]any)}
}

// WithCause attaches an underlying error (chainable).
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsKind reports whether err, or any error it wraps, is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
