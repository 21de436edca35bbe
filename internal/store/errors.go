package store

import "errors"

var (
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDuplicateID is returned by Insert when the id is already present.
	// The directory allocates fresh ids inside the same critical section as
	// the insert, so hitting this is an invariant violation, not user error.
	ErrDuplicateID = errors.New("duplicate id")
)
