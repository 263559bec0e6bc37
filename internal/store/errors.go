package store

import "errors"

// Repositories return these sentinels, possibly wrapped; transports map them
// to status codes with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	// ErrIdempotencyConflict means the key was already used for a request
	// with different content.
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
)
