package service

import "errors"

// Sentinel errors for the pipeline service.
var (
	ErrNilConfig = errors.New("config is required")
	ErrNoState   = errors.New("state database is not configured")
)
