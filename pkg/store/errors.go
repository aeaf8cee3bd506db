package store

import "errors"

var (
	// ErrNotFound reports that no document exists under the given id.
	// Callers that treat absence as an empty result are expected to
	// absorb it with errors.Is.
	ErrNotFound = errors.New("record not found")

	// ErrIDInUse reports an Insert under an id that already holds a
	// document.
	ErrIDInUse = errors.New("record id already in use")

	// ErrUnavailable reports that the backend could not be reached.
	// Drivers wrap transport failures with it and never retry
	// internally.
	ErrUnavailable = errors.New("store unavailable")

	// ErrTimeout reports that the backend did not answer within the
	// driver's response window.
	ErrTimeout = errors.New("timeout")
)
