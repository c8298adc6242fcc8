package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNoSnapshot   = errors.New("no snapshot saved")
	ErrInvalidLimit = errors.New("invalid history limit")
)
