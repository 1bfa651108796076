package domain

import "fmt"

// SessionKind tags the variant held by a SessionState.
type SessionKind int

const (
	SessionUnknown SessionKind = iota
	SessionAuthenticated
	SessionUnauthenticated
)

func (k SessionKind) String() string {
	switch k {
	case SessionUnknown:
		return "unknown"
	case SessionAuthenticated:
		return "authenticated"
	case SessionUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("SessionKind(%d)", int(k))
	}
}

// SessionState is what the current launch knows about the authenticated principal.
// The zero value is Unknown.
type SessionState struct {
	Kind        SessionKind
	PrincipalID string
	// Offline marks an Unauthenticated state that was reached because the identity
	// service could not be reached, not because it reported no principal.
	Offline bool
}

func Unknown() SessionState {
	return SessionState{Kind: SessionUnknown}
}

func Authenticated(principalID string) SessionState {
	return SessionState{Kind: SessionAuthenticated, PrincipalID: principalID}
}

func Unauthenticated() SessionState {
	return SessionState{Kind: SessionUnauthenticated}
}

func Offline() SessionState {
	return SessionState{Kind: SessionUnauthenticated, Offline: true}
}

// IsTerminal reports whether the state is Authenticated or Unauthenticated.
func (s SessionState) IsTerminal() bool {
	return s.Kind == SessionAuthenticated || s.Kind == SessionUnauthenticated
}

func (s SessionState) String() string {
	switch {
	case s.Kind == SessionAuthenticated:
		return fmt.Sprintf("authenticated(%s)", s.PrincipalID)
	case s.Offline:
		return "unauthenticated(offline)"
	default:
		return s.Kind.String()
	}
}
