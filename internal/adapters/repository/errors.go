package repository

import "errors"

// Sentinel kinds for index errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicateID = errors.New("duplicate motor identity")
)
