package domain

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Principal is an authenticated identity returned by the identity service.
type Principal struct {
	ID    string
	Email string
}

// LoginAttempt exists only for the duration of a single sign-in call. It is never persisted.
type LoginAttempt struct {
	ID          uuid.UUID
	Email       string
	Password    string
	SubmittedAt time.Time
}

// LogValue keeps the password out of structured logs.
func (a LoginAttempt) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", a.ID.String()),
		slog.String("email", a.Email),
		slog.Time("submitted_at", a.SubmittedAt),
	)
}
