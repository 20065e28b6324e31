package search

import (
	"errors"
)

// Sentinel error kinds for the capacity search.
var (
	ErrEmptyTrainingSet  = errors.New("empty training set")
	ErrInvalidBracket    = errors.New("invalid capacity bracket")
	ErrInvalidIterations = errors.New("iterations must be at least 1")
	ErrEstimator         = errors.New("estimator failed")
)
