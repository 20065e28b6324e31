package ingest

import (
	"errors"
)

// Sentinel error kinds for ingestion.
var (
	ErrDataDirMissing      = errors.New("data directory does not exist")
	ErrUnsupportedFormat   = errors.New("unsupported shot file format")
	ErrAlreadyConsolidated = errors.New("consolidated file already exists")
	ErrNoShotFiles         = errors.New("no shot files found")
)
