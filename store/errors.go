package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store.record_not_found")

	// ErrAlreadyExists is returned when a unique constraint (user email)
	// would be violated.
	ErrAlreadyExists = errors.New("store.record_already_exists")
)
