package service

import (
	"context"
	"fmt"

	"github.com/okian/swish/internal/adapters/cache"
	"github.com/okian/swish/internal/adapters/ingest"
	"github.com/okian/swish/internal/config"
	"github.com/okian/swish/internal/domain/clean"
	"github.com/okian/swish/internal/domain/scoring"
	"github.com/okian/swish/internal/domain/search"
	"github.com/okian/swish/internal/domain/shot"
	"github.com/okian/swish/internal/domain/training"
	"github.com/okian/swish/pkg/logger"
)

// NewTrainer builds the estimator, capacity cache and trainer described by
// cfg. The caller closes the returned cache.
func NewTrainer(ctx context.Context, cfg *config.Config) (*training.Trainer, cache.Store, error) {
	store, err := cache.New(ctx, cfg.CacheAddr, cfg.CacheTTL())
	if err != nil {
		return nil, nil, fmt.Errorf("open capacity cache: %w", err)
	}
	est := scoring.NewForestScorer(
		scoring.WithFolds(cfg.CVFolds),
		scoring.WithMaxDepth(cfg.MaxDepth),
		scoring.WithSeed(cfg.Seed),
		scoring.WithTestFraction(cfg.TestFraction),
	)
	t := training.NewTrainer(est,
		training.WithBracket(search.Bracket{Low: cfg.SearchLow, High: cfg.SearchHigh}),
		training.WithIterations(cfg.SearchIterations),
		training.WithMinSamples(cfg.MinSamples),
		training.WithCache(store),
	)
	return t, store, nil
}

// ReadShots loads and cleans the shot file or directory at path.
func ReadShots(ctx context.Context, path string) ([]shot.Record, clean.Report, error) {
	table, err := ingest.NewLoader(path).Load(ctx, path)
	if err != nil {
		return nil, clean.Report{}, fmt.Errorf("load shots: %w", err)
	}
	records, report, err := clean.New().Clean(table)
	if err != nil {
		return nil, report, fmt.Errorf("clean shots: %w", err)
	}
	return records, report, nil
}

// Preload replaces the dataset with the shots read from path.
func (s *Service) Preload(ctx context.Context, path string) (clean.Report, error) {
	records, report, err := ReadShots(ctx, path)
	if err != nil {
		return report, err
	}
	s.LoadShots(ctx, records)
	s.logger.Info(ctx, "dataset preloaded",
		logger.String("path", path),
		logger.Int("kept", report.RowsKept),
		logger.Int("dropped", report.RowsDropped),
	)
	return report, nil
}
