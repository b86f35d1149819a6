package daminion

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
)

// Daminion-specific errors.
var (
	// ErrNoSessionCookie indicates the login response carried no session
	// cookie, which means authentication did not actually succeed.
	ErrNoSessionCookie = errors.New("daminion: no session cookie received")

	// ErrTagNotFound indicates a tag name is absent from the loaded schema.
	ErrTagNotFound = errors.New("daminion: tag not found in schema")

	// ErrRoleNotFound indicates a logical tag role (saved searches, shared
	// collections, flag) could not be discovered in this installation.
	ErrRoleNotFound = errors.New("daminion: tag role not discovered")
)

// NetworkError wraps a connection or timeout failure. Retried with backoff
// before being surfaced.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("daminion: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RateLimitError indicates server-side throttling (HTTP 429) despite the
// client's own request spacing.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("daminion: rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "daminion: rate limit exceeded"
}

func (e *RateLimitError) Unwrap() error { return domain.ErrRateLimited }

// APIError represents a non-2xx response from the server. The status and
// server message are preserved for diagnostic logging by the caller.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daminion: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Unwrap maps well-known status codes onto domain sentinels so callers can
// use errors.Is without importing this package's types.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return domain.ErrAuthFailed
	case http.StatusForbidden:
		return domain.ErrPermission
	case http.StatusNotFound:
		return domain.ErrNotFound
	}
	return nil
}

// SchemaLoadError wraps a failure to fetch or decode the tag taxonomy.
type SchemaLoadError struct {
	Err error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("daminion: schema load failed: %v", e.Err)
}

func (e *SchemaLoadError) Unwrap() error { return e.Err }

// BatchWriteError wraps a failure to apply a batch metadata change. The
// whole batch is reported as one failure; callers decide whether to retry
// or split.
type BatchWriteError struct {
	Items int
	Err   error
}

func (e *BatchWriteError) Error() string {
	return fmt.Sprintf("daminion: batch write of %d items failed: %v", e.Items, e.Err)
}

func (e *BatchWriteError) Unwrap() error { return e.Err }

// IsNotFound checks if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrAuthFailed)
}

// IsForbidden checks if the error indicates a forbidden operation.
func IsForbidden(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}
