package identity

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/adala-wanyande/afyaone/internal/platform/config"
	"github.com/jonboulle/clockwork"
)

// NewFromConfig builds the configured identity service behind a circuit breaker.
func NewFromConfig(cfg *config.Config, clock clockwork.Clock, observer StateObserver) (*Breaker, error) {
	var next domain.IdentityService

	switch cfg.IdentityProvider {
	case config.ProviderREST:
		next = NewRESTClient(cfg.IdentityBaseURL, cfg.IdentityAPIKey, cfg.IdentityHTTPTimeout, clock)
		slog.Info("Using REST identity service", "base_url", cfg.IdentityBaseURL)
	case config.ProviderMemory:
		mem, err := newSeededMemoryService(cfg)
		if err != nil {
			return nil, err
		}
		next = mem
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.IdentityProvider)
	}

	return NewBreaker(next, DefaultBreakerSettings, observer), nil
}

func newSeededMemoryService(cfg *config.Config) (*MemoryService, error) {
	users, err := cfg.ParseDevUsers()
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(users))
	for email := range users {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	mem := NewMemoryService(0)
	for _, email := range emails {
		if _, err := mem.AddUser(email, users[email]); err != nil {
			return nil, fmt.Errorf("failed to add dev user %s: %w", email, err)
		}
	}
	slog.Warn("Using in-memory identity service", "users", emails)
	return mem, nil
}
