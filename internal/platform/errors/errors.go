// Package errors provides the structured authentication error with HTTP status code mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of an authentication error.
type ErrorType string

const (
	// TypeValidation indicates a local precondition failed before any service call (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeInFlight indicates the same operation is already outstanding (HTTP 409)
	TypeInFlight ErrorType = "in_flight"
	// TypeRejected indicates the identity service refused the request (HTTP 401)
	TypeRejected ErrorType = "rejected"
	// TypeUnavailable indicates the identity service could not be reached (HTTP 503)
	TypeUnavailable ErrorType = "unavailable"
	// TypeInternal indicates a local failure (HTTP 500)
	TypeInternal ErrorType = "internal"
)

// AuthError is the single error kind surfaced to the UI layer. Message is display
// text; for TypeRejected it is the identity service's message, unmodified.
type AuthError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *AuthError) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeInFlight:
		return http.StatusConflict
	case TypeRejected:
		return http.StatusUnauthorized
	case TypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError creates a new validation error (HTTP 400).
func ValidationError(message string) *AuthError {
	return newError(TypeValidation, message, nil)
}

// InFlightError creates a new in-flight error (HTTP 409).
func InFlightError(message string) *AuthError {
	return newError(TypeInFlight, message, nil)
}

// RejectedError creates an error carrying the identity service's message (HTTP 401).
func RejectedError(message string, cause error) *AuthError {
	return newError(TypeRejected, message, cause)
}

// UnavailableError creates a new unreachable-service error (HTTP 503).
func UnavailableError(message string, cause error) *AuthError {
	return newError(TypeUnavailable, message, cause)
}

// InternalError creates a new internal error (HTTP 500).
func InternalError(message string, cause error) *AuthError {
	return newError(TypeInternal, message, cause)
}

func newError(t ErrorType, message string, cause error) *AuthError {
	return &AuthError{
		Type:    t,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds context fields to the error (chainable).
func (e *AuthError) WithContext(key string, value any) *AuthError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an AuthError to an ErrorResponse for JSON serialization.
func (e *AuthError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsAuthError converts any error into an AuthError.
// If err already is (or wraps) an *AuthError, that one is returned.
// Otherwise it is wrapped as an internal error.
func AsAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}

	if authErr, ok := errors.AsType[*AuthError](err); ok {
		return authErr
	}

	return InternalError("internal error", err)
}

// IsType reports whether err is an AuthError of the given type.
func IsType(err error, t ErrorType) bool {
	authErr, ok := errors.AsType[*AuthError](err)
	return ok && authErr.Type == t
}
