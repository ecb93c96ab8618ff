package sqlite

import "errors"

// Sentinel errors for the state store.
var (
	ErrNotOpen     = errors.New("database not opened")
	ErrRunNotFound = errors.New("run not found")
)
