package forest

import (
	"errors"
)

// Sentinel error kinds for the classifier.
var (
	ErrNotFitted        = errors.New("classifier not fitted")
	ErrEmptyInput       = errors.New("empty training input")
	ErrShapeMismatch    = errors.New("feature shape mismatch")
	ErrInvalidTreeCount = errors.New("tree count must be at least 1")
)
