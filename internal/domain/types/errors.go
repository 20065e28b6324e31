package types

import "errors"

// Sentinel errors returned by the service layer.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrUnknownPlayer = errors.New("player has no shots")
	ErrJobNotFound   = errors.New("job not found")
	ErrBackpressure  = errors.New("training queue full")
	ErrStopped       = errors.New("service stopped")
)
