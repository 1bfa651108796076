package app

import (
	"context"
	"errors"

	"github.com/adala-wanyande/afyaone/internal/domain"
	apperrors "github.com/adala-wanyande/afyaone/internal/platform/errors"
)

// isUnavailable reports whether err means the identity service could not answer at all.
func isUnavailable(err error) bool {
	return errors.Is(err, domain.ErrIdentityUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// classifyIdentityError maps an identity service failure onto an AuthError. Refusals
// keep the service's message untouched.
func classifyIdentityError(err error) *apperrors.AuthError {
	if authErr, ok := errors.AsType[*apperrors.AuthError](err); ok {
		return authErr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return apperrors.UnavailableError("request cancelled", err)
	case isUnavailable(err):
		return apperrors.UnavailableError("identity service unavailable", err)
	}

	if svcErr, ok := errors.AsType[*domain.ServiceError](err); ok {
		return apperrors.RejectedError(svcErr.Message, err)
	}
	return apperrors.RejectedError(err.Error(), err)
}
