// Package common defines shared constants and sentinel errors used across
// client and server layers of refgate. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrMisconfigured marks a missing or invalid runtime setting.
	ErrMisconfigured = errors.New("server misconfigured")

	// Input errors. Both are reported before any storage interaction.
	ErrValidation    = errors.New("validation error")
	ErrMalformedJSON = errors.New("malformed json")

	// Dependency errors. ErrUpstream covers an unreachable or failing store or
	// backend; ErrBackendRejected covers a reachable backend reporting failure.
	ErrUpstream        = errors.New("upstream dependency failure")
	ErrBackendRejected = errors.New("backend reported failure")
)
