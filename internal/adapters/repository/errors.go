package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("topic not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrInvalidRow   = errors.New("invalid row")
	ErrNoBoard      = errors.New("no board published yet")
)
