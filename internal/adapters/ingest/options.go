package ingest

import (
	"github.com/okian/swish/pkg/logger"
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a custom logger for the loader.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithProgressEvery sets how many files are processed between progress logs.
func WithProgressEvery(n int) Option {
	return func(ld *Loader) {
		if n > 0 {
			ld.progressEvery = n
		}
	}
}
