package clean

import (
	"errors"
)

// Sentinel error kinds for cleaning.
var (
	ErrMissingColumns = errors.New("missing essential columns")
)
