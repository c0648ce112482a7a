package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrNotFound     = errors.New("teacher not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrNilSnapshot  = errors.New("nil snapshot")
)
