package config

import "errors"

// Sentinel errors so callers can match with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLoadConfig    = errors.New("failed to load configuration")
)
