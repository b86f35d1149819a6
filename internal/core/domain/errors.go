package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested item, tag, or collection does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFilter indicates an incoherent search filter combination.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrNotAuthenticated indicates an operation that requires a live
	// session was attempted before Connect or after Logout.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthFailed indicates the server rejected the credentials or the
	// session has expired. Never retried automatically.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrPermission indicates the operation is forbidden for the current
	// user. Never retried.
	ErrPermission = errors.New("permission denied")

	// ErrRateLimited indicates server-side throttling despite local rate
	// limiting. Retried with backoff before being surfaced.
	ErrRateLimited = errors.New("rate limited")
)
