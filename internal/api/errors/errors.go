package errors

import (
	"fmt"
	"net/http"

	apperrors "object-whisper/internal/app/errors"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindInternal           ErrorKind = "internal"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindBadRequest         ErrorKind = "bad_request"
	KindInference          ErrorKind = "inference"
)

// APIError represents a structured API error response
type APIError struct {
	Kind      ErrorKind         `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Code      string            `json:"code,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error with field details
func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Details: fields,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewServiceUnavailableError creates a service unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Kind:    KindServiceUnavailable,
		Message: message,
	}
}

// FromError maps a domain error to an API error. The message of an
// unexpected error is not exposed.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if apperrors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case apperrors.Is(err, apperrors.ErrInference):
		return &APIError{Kind: KindInference, Message: "Transcription failed", Code: "inference_failed", Details: map[string]string{"cause": err.Error()}}
	case apperrors.Is(err, apperrors.ErrStaging):
		return &APIError{Kind: KindInternal, Message: "Could not stage audio", Code: "staging_failed"}
	case apperrors.Is(err, apperrors.ErrObjectRetrieval):
		return &APIError{Kind: KindServiceUnavailable, Message: "Object store unavailable", Code: "storage_unavailable"}
	case apperrors.IsValidationError(err):
		return &APIError{Kind: KindBadRequest, Message: err.Error()}
	default:
		return NewInternalError("Internal server error")
	}
}
