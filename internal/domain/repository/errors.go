package repository

import "errors"

// Common repository errors.
// These errors provide a consistent error interface across different storage implementations.
var (
	// ErrAlreadyExists indicates an entry with the same identifier already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrEmptyKey indicates a scope or identifier was empty.
	ErrEmptyKey = errors.New("empty key")
)
