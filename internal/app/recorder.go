package app

import (
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
)

// Recorder receives launch and auth outcomes, typically for metrics.
type Recorder interface {
	SessionResolved(outcome string, took time.Duration)
	SignInFinished(result string)
	PasswordResetFinished(result string)
	ModeChanged(from, to domain.UIMode)
}

type nopRecorder struct{}

func (nopRecorder) SessionResolved(string, time.Duration) {}
func (nopRecorder) SignInFinished(string) {}
func (nopRecorder) PasswordResetFinished(string) {}
func (nopRecorder) ModeChanged(domain.UIMode, domain.UIMode) {}

func orNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
