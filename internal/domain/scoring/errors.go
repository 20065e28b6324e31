package scoring

import (
	"errors"
)

// Sentinel error kinds for cross-validation and holdout scoring.
var (
	ErrDegenerateFold = errors.New("degenerate cross-validation fold")
	ErrEmptySplit     = errors.New("holdout split leaves an empty partition")
)
