package domain

import "context"

// IdentityService is the external system of record for credentials, sessions and
// password-reset delivery.
//
// Implementations report an unreachable service by wrapping ErrIdentityUnavailable
// and report refusals with a *ServiceError carrying the service's own message.
type IdentityService interface {
	// CurrentPrincipal returns (nil, nil) when nobody is signed in.
	CurrentPrincipal(ctx context.Context) (*Principal, error)
	SignIn(ctx context.Context, email, password string) (*Principal, error)
	// SendPasswordReset succeeding means the request was accepted, not that the
	// address is registered.
	SendPasswordReset(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
}
