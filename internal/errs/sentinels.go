// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username or collection taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates bad input; no side effect occurred and the call is
	// safe to retry after fixing the input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransient indicates a network/timeout failure talking to a backing
	// store; safe to retry with backoff.
	ErrTransient = errors.New("transient store error")

	// ErrCorruptInput indicates a malformed dataset or an exceeded skip-rate
	// threshold during a catalog build; not retryable without fixing the source.
	ErrCorruptInput = errors.New("corrupt input")

	// ErrBuildInProgress indicates a catalog build was requested while another
	// one is still running.
	ErrBuildInProgress = errors.New("build in progress")
)

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
