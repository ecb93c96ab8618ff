package model

import "errors"

// Sentinel errors for domain values.
var (
	ErrInvalidDate = errors.New("invalid date")
)
