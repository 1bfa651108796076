// Package identity contains the IdentityService implementations: a REST client for an
// Identity-Toolkit-style account API, an in-memory service for development, and a
// circuit breaker that can wrap either.
package identity
