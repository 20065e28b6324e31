package search

import (
	"github.com/okian/swish/pkg/logger"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for per-evaluation and per-round progress.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a callback invoked after every completed round.
func WithObserver(fn func(Round)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}
