package training

import (
	"time"

	"github.com/okian/swish/internal/domain/search"
	"github.com/okian/swish/pkg/logger"
)

// Option configures a Trainer.
type Option func(*Trainer)

// WithBracket sets the initial capacity bracket of every search.
func WithBracket(b search.Bracket) Option {
	return func(t *Trainer) { t.bracket = b }
}

// WithIterations sets the number of search rounds.
func WithIterations(n int) Option {
	return func(t *Trainer) { t.iterations = n }
}

// WithMinSamples sets the shot count below which training logs a reliability warning.
func WithMinSamples(n int) Option {
	return func(t *Trainer) {
		if n >= 0 {
			t.minSamples = n
		}
	}
}

// WithCache enables capacity caching.
func WithCache(c CapacityCache) Option {
	return func(t *Trainer) { t.cache = c }
}

// WithLogger sets a custom logger for the trainer.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithSearchOptions forwards options to the capacity search controller.
func WithSearchOptions(opts ...search.Option) Option {
	return func(t *Trainer) { t.searchOpts = append(t.searchOpts, opts...) }
}

// WithClock overrides the time source used for TrainedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}
