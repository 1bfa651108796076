package domain

import "fmt"

// UIMode is the display mode derived from the session state and elapsed display time.
type UIMode int

const (
	ModeLoading UIMode = iota
	ModeLoginPrompt
	ModeAppShell
)

func (m UIMode) String() string {
	switch m {
	case ModeLoading:
		return "loading"
	case ModeLoginPrompt:
		return "login"
	case ModeAppShell:
		return "app_shell"
	default:
		return fmt.Sprintf("UIMode(%d)", int(m))
	}
}

// ModeChange describes a single router transition.
type ModeChange struct {
	From UIMode
	To   UIMode
}
