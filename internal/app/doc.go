// Package app provides the application service layer.
//
// Orchestrates the launch use cases: resolving the session once per launch, routing between
// the splash, login and application views, and submitting credentials or password resets.
// Sits between the presentation host and the identity service. Depends on domain interfaces,
// not concrete implementations.
package app
