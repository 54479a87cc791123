package persistence

import "errors"

var (
	// ErrCorruptSnapshot is returned when stored data cannot be decoded into a snapshot.
	ErrCorruptSnapshot = errors.New("persistence: corrupt snapshot")
	// ErrUnknownBackend is returned when a snapshot backend name is not recognised.
	ErrUnknownBackend = errors.New("persistence: unknown backend")
)
