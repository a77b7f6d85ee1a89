package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record doesn't exist.
	ErrNotFound = errors.New("corral: record not found")

	// ErrAllocationConflict is returned when an identifier allocation or a
	// create lost a race for its key. Safe to retry with a fresh attempt.
	ErrAllocationConflict = errors.New("corral: identifier allocation conflict")

	// ErrVersionConflict is returned when an update's expected version no
	// longer matches the stored record. Never retried by the engine; the
	// caller must re-fetch and decide.
	ErrVersionConflict = errors.New("corral: record was modified concurrently")

	// ErrVersionRequired is returned when a schema enforcing serial updates
	// is compiled without an expected version.
	ErrVersionRequired = errors.New("corral: update requires expected version")

	// ErrInvalidBookingState is returned when a booking transition is
	// attempted from a status that doesn't permit it.
	ErrInvalidBookingState = errors.New("corral: booking is not in a confirmable state")

	// ErrSessionMismatch is returned when a booking confirmation carries a
	// session id that doesn't match the stored one.
	ErrSessionMismatch = errors.New("corral: booking session mismatch")
)

// ConflictError reports which keys failed their write conditions inside a
// transaction chunk. It unwraps to ErrAllocationConflict, ErrVersionConflict,
// or ErrNotFound depending on the operation that failed.
type ConflictError struct {
	// Keys are the keys whose conditions failed.
	Keys []Key

	// Chunk is the zero-based index of the failed chunk. Chunks before it
	// were already committed and stay committed.
	Chunk int

	kind error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v (chunk %d, keys %v)", e.kind, e.Chunk, e.Keys)
}

func (e *ConflictError) Unwrap() error { return e.kind }
