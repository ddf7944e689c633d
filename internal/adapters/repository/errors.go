package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidSeed = errors.New("invalid season seed")
)
