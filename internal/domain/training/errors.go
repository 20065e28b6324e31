package training

import (
	"errors"
)

// Sentinel error kinds for training.
var (
	ErrNotTrained = errors.New("model has not been trained")
)
