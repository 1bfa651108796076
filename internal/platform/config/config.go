package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	ProviderREST   = "rest"
	ProviderMemory = "memory"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	BindAddr  string `env:"BIND_ADDR" default:"127.0.0.1"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// Only honour X-Forwarded-For when a local reverse proxy fronts the host.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" default:"false"`

	IdentityProvider    string        `env:"IDENTITY_PROVIDER" default:"rest"`
	IdentityBaseURL     string        `env:"IDENTITY_BASE_URL" default:"https://identitytoolkit.googleapis.com/v1"`
	IdentityAPIKey      string        `env:"IDENTITY_API_KEY"`
	IdentityHTTPTimeout time.Duration `env:"IDENTITY_HTTP_TIMEOUT" default:"10s"`
	DevUsers            string        `env:"DEV_USERS"` // email:password,email:password (memory provider only)

	SplashMinDuration     time.Duration `env:"SPLASH_MIN_DURATION" default:"2s"`
	SessionResolveTimeout time.Duration `env:"SESSION_RESOLVE_TIMEOUT" default:"5s"`

	AuthRateLimit  float64 `env:"AUTH_RATE_LIMIT" default:"1"`
	AuthRateBurst  int     `env:"AUTH_RATE_BURST" default:"5"`
	ResetRateLimit float64 `env:"AUTH_RESET_RATE_LIMIT" default:"0.1"`
	ResetRateBurst int     `env:"AUTH_RESET_RATE_BURST" default:"3"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" default:"true"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LoopbackOnly reports whether the host listens on a loopback address. The host
// carries a single device session, so every other client must be refused.
func (c *Config) LoopbackOnly() bool {
	return IsLoopbackHost(c.BindAddr)
}

// IsLoopbackHost reports whether host is "localhost" or a loopback IP.
func IsLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.IdentityProvider {
	case ProviderREST:
		if err := validateREST(cfg); err != nil {
			return err
		}
	case ProviderMemory:
		if cfg.IsProduction() {
			return errors.New("IDENTITY_PROVIDER=memory is not allowed in production")
		}
		if _, err := cfg.ParseDevUsers(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("IDENTITY_PROVIDER must be %q or %q, got %q", ProviderREST, ProviderMemory, cfg.IdentityProvider)
	}

	if cfg.SplashMinDuration < 0 {
		return errors.New("SPLASH_MIN_DURATION must not be negative")
	}
	if cfg.SessionResolveTimeout <= 0 {
		return errors.New("SESSION_RESOLVE_TIMEOUT must be positive")
	}
	if cfg.IdentityHTTPTimeout <= 0 {
		return errors.New("IDENTITY_HTTP_TIMEOUT must be positive")
	}
	if cfg.AuthRateLimit <= 0 || cfg.AuthRateBurst < 1 {
		return errors.New("AUTH_RATE_LIMIT must be positive and AUTH_RATE_BURST at least 1")
	}
	if cfg.ResetRateLimit <= 0 || cfg.ResetRateBurst < 1 {
		return errors.New("AUTH_RESET_RATE_LIMIT must be positive and AUTH_RESET_RATE_BURST at least 1")
	}

	return validateBindAddr(cfg)
}

func validateBindAddr(cfg *Config) error {
	if cfg.BindAddr != "localhost" && net.ParseIP(cfg.BindAddr) == nil {
		return fmt.Errorf("BIND_ADDR must be an IP address or localhost, got %q", cfg.BindAddr)
	}
	if cfg.IsProduction() && !cfg.LoopbackOnly() {
		return fmt.Errorf("BIND_ADDR %s is not a loopback address, which is not allowed in production", cfg.BindAddr)
	}
	if !cfg.LoopbackOnly() {
		slog.Warn("Host is reachable from the network and every client shares one session", "bind_addr", cfg.BindAddr)
	}
	return nil
}

func validateREST(cfg *Config) error {
	required := map[string]string{
		"IDENTITY_BASE_URL": cfg.IdentityBaseURL,
		"IDENTITY_API_KEY":  cfg.IdentityAPIKey,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	u, err := url.Parse(cfg.IdentityBaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("IDENTITY_BASE_URL must be an absolute URL, got %q", cfg.IdentityBaseURL)
	}
	if cfg.IsProduction() && u.Scheme != "https" {
		return fmt.Errorf("IDENTITY_BASE_URL uses %s which is not allowed in production", u.Scheme)
	}
	return nil
}

// ParseDevUsers splits DEV_USERS into an email -> password map.
func (c *Config) ParseDevUsers() (map[string]string, error) {
	users := make(map[string]string)
	if strings.TrimSpace(c.DevUsers) == "" {
		return users, nil
	}
	for entry := range strings.SplitSeq(c.DevUsers, ",") {
		email, password, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || email == "" || password == "" {
			return nil, fmt.Errorf("DEV_USERS entry %q must be email:password", entry)
		}
		users[email] = password
	}
	return users, nil
}
