package store

import "errors"

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken means the unique constraint on username rejected a
	// write. Concurrent duplicate registrations are arbitrated here by the
	// database, not by application-level locking.
	ErrUsernameTaken = errors.New("username already exists")
)
