package services

import "errors"

var (
	// ErrNotFound marks an expected record that is missing (no profile yet,
	// no active connection). Callers treat it as a state-machine branch,
	// not a failure.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an operation that lost a compare-and-swap or was
	// attempted against the wrong lifecycle state.
	ErrConflict = errors.New("conflict")

	// ErrInvariantViolation marks a state the lifecycle rules should make
	// impossible, e.g. resolving a connection whose both flags are unset.
	ErrInvariantViolation = errors.New("invariant violation")
)
