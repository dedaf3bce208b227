package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrMissingComponent = errors.New("missing component")
	ErrNotStarted       = errors.New("service not started")
)
