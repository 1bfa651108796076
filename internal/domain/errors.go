package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIdentityUnavailable = errors.New("identity service unavailable")
	ErrInvalidTransition   = errors.New("invalid view transition")
)

// ServiceError is a refusal reported by the identity service. Message is shown to
// the user as-is.
type ServiceError struct {
	Message string
	Status  int
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError builds a ServiceError, falling back to a generic message when the
// service sent none.
func NewServiceError(status int, message string) *ServiceError {
	if message == "" {
		message = fmt.Sprintf("identity service returned status %d", status)
	}
	return &ServiceError{Message: message, Status: status}
}
