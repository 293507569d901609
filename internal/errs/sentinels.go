// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Client-side taxonomy. Every failure leaving the gateway, the sync service or
// the auth orchestrator matches exactly one of these with errors.Is.
var (
	// ErrUnauthenticated indicates an authorized call was attempted without a session.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrTimeout indicates the request exceeded its deadline and was aborted.
	ErrTimeout = errors.New("request timed out")

	// ErrTransport indicates a network-level failure.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse indicates the backend answered with an undecodable body.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrHTTP indicates a non-2xx response or a backend-reported failure.
	ErrHTTP = errors.New("http error")

	// ErrValidation indicates client-side input validation failed before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrIdentityProvider indicates an opaque failure reported by the identity provider.
	ErrIdentityProvider = errors.New("identity provider error")
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary sign-in lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates a request failed server-side validation.
	ErrInvalidInput = errors.New("invalid input")
)
