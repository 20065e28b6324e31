// Package training orchestrates per-player model training: filter the
// player's shots, pick a capacity with the search, fit the final forest on a
// holdout split and measure its accuracy.
package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/swish/internal/domain/scoring"
	"github.com/okian/swish/internal/domain/search"
	"github.com/okian/swish/internal/domain/shot"
	"github.com/okian/swish/pkg/logger"
	"github.com/okian/swish/pkg/metrics"
)

// Default training configuration constants.
const (
	defaultMinSamples = 100
	defaultLow        = 50
	defaultHigh       = 600
	defaultIterations = 4
)

// Estimator is the scorer the trainer drives: search.Estimator plus a
// deterministic holdout split. Key identifies the settings that change its
// scores, so cached capacities are never shared between differently
// configured estimators.
type Estimator interface {
	search.Estimator
	Split(set shot.TrainingSet) (train, test shot.TrainingSet, err error)
	Key() string
}

// CachedCapacity is a stored search outcome.
type CachedCapacity struct {
	Capacity int     `json:"capacity"`
	Score    float64 `json:"score"`
}

// CapacityCache remembers search outcomes per training set and search settings.
type CapacityCache interface {
	Get(ctx context.Context, key string) (CachedCapacity, bool, error)
	Set(ctx context.Context, key string, v CachedCapacity) error
}

// Trainer trains player models. It is safe for concurrent use.
type Trainer struct {
	estimator  Estimator
	controller *search.Controller
	cache      CapacityCache
	logger     logger.Logger
	searchOpts []search.Option
	now        func() time.Time

	bracket    search.Bracket
	iterations int
	minSamples int
}

// NewTrainer creates a Trainer around est.
func NewTrainer(est Estimator, opts ...Option) *Trainer {
	t := &Trainer{
		estimator:  est,
		logger:     logger.Get().Named("trainer"),
		now:        time.Now,
		bracket:    search.Bracket{Low: defaultLow, High: defaultHigh},
		iterations: defaultIterations,
		minSamples: defaultMinSamples,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.controller = search.NewController(est, append([]search.Option{search.WithLogger(t.logger.Named("search"))}, t.searchOpts...)...)
	return t
}

// Train builds a model for player from records, which may hold other players' shots.
func (t *Trainer) Train(ctx context.Context, records []shot.Record, player string) (*Model, error) {
	start := time.Now()
	m, err := t.train(ctx, records, player)
	if err != nil {
		metrics.RecordTrainingError(errorKind(err))
		return nil, err
	}
	metrics.RecordTraining(float64(time.Since(start).Milliseconds()))
	metrics.UpdateModelAccuracy(player, m.Accuracy)
	return m, nil
}

func (t *Trainer) train(ctx context.Context, records []shot.Record, player string) (*Model, error) {
	set := shot.FilterPlayer(records, player)
	if set.Empty() {
		return nil, fmt.Errorf("train %q: %w", player, search.ErrEmptyTrainingSet)
	}
	if set.Len() < t.minSamples {
		t.logger.Warn(ctx, "few shots for player, model may be unstable",
			logger.String("player", player),
			logger.Int("samples", set.Len()),
			logger.Int("min_samples", t.minSamples),
		)
	}

	m := &Model{Player: player, Samples: set.Len(), MadeRate: set.MadeRate()}

	key := t.cacheKey(set)
	if hit, ok := t.lookup(ctx, key); ok {
		m.Capacity, m.CVScore, m.CacheHit = hit.Capacity, hit.Score, true
	} else {
		res, err := t.controller.Search(ctx, set, t.bracket, t.iterations)
		if err != nil {
			return nil, fmt.Errorf("train %q: %w", player, err)
		}
		m.Capacity, m.CVScore, m.Rounds = res.Capacity, res.Score, res.Rounds
		t.store(ctx, key, CachedCapacity{Capacity: res.Capacity, Score: res.Score})
	}

	train, test, err := t.estimator.Split(set)
	if err != nil {
		return nil, fmt.Errorf("train %q: %w", player, err)
	}
	predictor, err := t.estimator.Fit(ctx, train, m.Capacity)
	if err != nil {
		return nil, fmt.Errorf("train %q: %w", player, err)
	}
	acc, err := scoring.Accuracy(predictor, test)
	if err != nil {
		return nil, fmt.Errorf("train %q: %w", player, err)
	}

	m.predictor = predictor
	m.Accuracy = acc
	m.TrainSamples, m.TestSamples = train.Len(), test.Len()
	m.TrainedAt = t.now()

	t.logger.Info(ctx, "model training complete",
		logger.String("player", player),
		logger.Float64("accuracy", acc),
		logger.Int("capacity", m.Capacity),
		logger.Bool("cache_hit", m.CacheHit),
	)
	return m, nil
}

func (t *Trainer) cacheKey(set shot.TrainingSet) string {
	return fmt.Sprintf("%s:%016x:%d-%d:%d:%s", set.Player, set.Fingerprint(), t.bracket.Low, t.bracket.High, t.iterations, t.estimator.Key())
}

func (t *Trainer) lookup(ctx context.Context, key string) (CachedCapacity, bool) {
	if t.cache == nil {
		return CachedCapacity{}, false
	}
	v, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		t.logger.Warn(ctx, "capacity cache lookup failed", logger.String("key", key), logger.Error(err))
		return CachedCapacity{}, false
	}
	metrics.RecordCapacityCacheLookup(ok)
	return v, ok
}

func (t *Trainer) store(ctx context.Context, key string, v CachedCapacity) {
	if t.cache == nil {
		return
	}
	if err := t.cache.Set(ctx, key, v); err != nil {
		t.logger.Warn(ctx, "capacity cache store failed", logger.String("key", key), logger.Error(err))
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, search.ErrEmptyTrainingSet):
		return "empty_training_set"
	case errors.Is(err, scoring.ErrDegenerateFold):
		return "degenerate_fold"
	case errors.Is(err, scoring.ErrEmptySplit):
		return "empty_split"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
