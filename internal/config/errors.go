package config

import "errors"

// Sentinel errors returned by Load, Validate and WindowSizes.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
