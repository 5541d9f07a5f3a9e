package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types
var (
	// Configuration errors
	ErrInvalidConfig   = New("invalid configuration")
	ErrMissingConfig   = New("configuration is required")
	ErrBackendNotFound = New("inference backend not found")

	// Model errors
	ErrUnknownModel = New("unknown model")
	ErrModelLoad    = New("model load failed")
	ErrInference    = New("inference failed")

	// Storage errors
	ErrObjectRetrieval = New("could not retrieve object")
	ErrStorageClient   = New("storage client configuration failed")

	// File errors
	ErrStaging        = New("staging failed")
	ErrFileNotFound   = New("file not found")
	ErrFileReadFailed = New("file read failed")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// Mark attaches a sentinel to err so that errors.Is matches both the sentinel
// and everything err already matched.
func Mark(err error, sentinel *Error) error {
	if err == nil {
		return nil
	}
	return &markedError{sentinel: sentinel, cause: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}

type markedError struct {
	sentinel *Error
	cause    error
}

func (m *markedError) Error() string {
	return fmt.Sprintf("%s: %v", m.sentinel.message, m.cause)
}

func (m *markedError) Unwrap() []error {
	return []error{m.sentinel, m.cause}
}

// Is reports whether err matches target, see errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target, see errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Helper functions for common patterns

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return Mark(Newf("%s is required", field), ErrInvalidConfig)
}

// InvalidField returns an error for invalid field values
func InvalidField(field string, reason string) error {
	return Mark(Newf("%s is invalid: %s", field, reason), ErrInvalidConfig)
}

// NotFound returns an error for items that were not found
func NotFound(itemType string, identifier string) error {
	return Newf("%s not found: %s", itemType, identifier)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidConfig) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "required") ||
		strings.Contains(msg, "invalid")
}
