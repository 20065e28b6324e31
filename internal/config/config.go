// Package config defines service configuration and its defaults.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration shared by the server and the CLIs.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataPath is a shot CSV/JSONL file or directory preloaded at startup. Empty skips preloading.
	DataPath string `koanf:"data_path"`

	// QueueSize bounds the in-memory training job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of training workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the in-flight player set.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MinSamples is the shot count under which training warns about reliability.
	MinSamples int `koanf:"min_samples"`

	SearchLow        int `koanf:"search_low"`
	SearchHigh       int `koanf:"search_high"`
	SearchIterations int `koanf:"search_iterations"`

	CVFolds      int     `koanf:"cv_folds"`
	MaxDepth     int     `koanf:"max_depth"`
	Seed         int64   `koanf:"seed"`
	TestFraction float64 `koanf:"test_fraction"`

	// CacheAddr is a Redis address for the capacity cache. Empty uses an in-memory cache.
	CacheAddr       string `koanf:"cache_addr"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           1_024,
		WorkerCount:         max(1, runtime.NumCPU()/2),
		DedupeSize:          10_000,
		MaxLeaderboardLimit: 100,
		MinSamples:          100,
		SearchLow:           50,
		SearchHigh:          600,
		SearchIterations:    4,
		CVFolds:             3,
		MaxDepth:            10,
		Seed:                42,
		TestFraction:        0.2,
		CacheTTLSeconds:     86_400,
	}
}

// CacheTTL returns the capacity cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate reports the first inconsistent setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive, got %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	case c.SearchLow < 1 || c.SearchHigh < c.SearchLow:
		return fmt.Errorf("%w: search bracket [%d, %d] is invalid", ErrInvalidConfig, c.SearchLow, c.SearchHigh)
	case c.SearchIterations < 1:
		return fmt.Errorf("%w: search_iterations must be positive, got %d", ErrInvalidConfig, c.SearchIterations)
	case c.CVFolds < 2:
		return fmt.Errorf("%w: cv_folds must be at least 2, got %d", ErrInvalidConfig, c.CVFolds)
	case c.MaxDepth < 1:
		return fmt.Errorf("%w: max_depth must be positive, got %d", ErrInvalidConfig, c.MaxDepth)
	case c.TestFraction <= 0 || c.TestFraction >= 1:
		return fmt.Errorf("%w: test_fraction must be in (0,1), got %g", ErrInvalidConfig, c.TestFraction)
	case c.CacheTTLSeconds < 0:
		return fmt.Errorf("%w: cache_ttl_seconds must not be negative", ErrInvalidConfig)
	}
	return nil
}
