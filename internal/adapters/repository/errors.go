package repository

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrNotFound     = errors.New("model not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrInvalidModel = errors.New("invalid model")
)
