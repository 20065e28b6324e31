// Package search implements the capacity search: an iterative bracket-narrowing
// optimiser that picks the ensemble size with the best cross-validated score.
//
// Each round evaluates the low, middle and high points of the current bracket,
// then re-centres a narrower bracket on the round's best candidate. The answer
// is the best candidate seen across all rounds, ties going to the first seen.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/swish/internal/domain/shot"
	"github.com/okian/swish/pkg/logger"
	"github.com/okian/swish/pkg/metrics"
)

// Predictor is a fitted model answering made-shot probabilities for encoded feature rows.
type Predictor interface {
	PredictProbability(row []float64) (float64, error)
}

// Estimator is the trainable model capability the search is driven by.
// CrossValidatedScore rates a capacity; Fit trains a model of that capacity.
type Estimator interface {
	CrossValidatedScore(ctx context.Context, set shot.TrainingSet, capacity int) (float64, error)
	Fit(ctx context.Context, set shot.TrainingSet, capacity int) (Predictor, error)
}

// Result is the outcome of a completed search.
type Result struct {
	Capacity int     `json:"capacity"`
	Score    float64 `json:"score"`
	Rounds   []Round `json:"rounds"`
}

// Controller runs capacity searches. It holds no per-search state and is safe
// for concurrent use when its Estimator is.
type Controller struct {
	estimator Estimator
	logger    logger.Logger
	observers []func(Round)
}

// NewController creates a Controller around est.
func NewController(est Estimator, opts ...Option) *Controller {
	c := &Controller{
		estimator: est,
		logger:    logger.Get().Named("search"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs iterations narrowing rounds starting from bracket and returns the
// best capacity seen. Estimator failures abort the search and are returned
// wrapped in ErrEstimator.
func (c *Controller) Search(ctx context.Context, set shot.TrainingSet, bracket Bracket, iterations int) (Result, error) {
	if set.Empty() {
		return Result{}, fmt.Errorf("search %q: %w", set.Player, ErrEmptyTrainingSet)
	}
	if err := bracket.Validate(); err != nil {
		return Result{}, fmt.Errorf("search %q: %w", set.Player, err)
	}
	if iterations < 1 {
		return Result{}, fmt.Errorf("search %q: %w: got %d", set.Player, ErrInvalidIterations, iterations)
	}

	start := time.Now()
	eval := c.instrument(set.Player, estimatorFunc(c.estimator, set))

	res := Result{Capacity: bracket.Low, Score: -1, Rounds: make([]Round, 0, iterations)}
	b := bracket
	for i := range iterations {
		r, err := RunRound(ctx, i, b, eval)
		if err != nil {
			metrics.RecordSearchError(errorKind(err))
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return Result{}, err
			}
			return Result{}, fmt.Errorf("search %q round %d: %w: %w", set.Player, i, ErrEstimator, err)
		}
		res = fold(res, r)

		c.logger.Info(ctx, "search round complete",
			logger.String("player", set.Player),
			logger.Int("round", i+1),
			logger.Int("low", b.Low),
			logger.Int("high", b.High),
			logger.Int("round_best", r.Best.Capacity),
			logger.Float64("round_best_score", r.Best.Score),
			logger.Int("next_low", r.Next.Low),
			logger.Int("next_high", r.Next.High),
		)
		for _, obs := range c.observers {
			obs(r)
		}
		b = r.Next
	}

	elapsed := time.Since(start)
	metrics.RecordSearchDuration(float64(elapsed.Milliseconds()))
	c.logger.Info(ctx, "search finished",
		logger.String("player", set.Player),
		logger.Int("capacity", res.Capacity),
		logger.Float64("score", res.Score),
		logger.Duration("elapsed", elapsed),
	)
	return res, nil
}

// fold merges a round into the running result. The global best only changes
// on a strictly higher score.
func fold(res Result, r Round) Result {
	for _, e := range r.Evaluations {
		if e.Score > res.Score {
			res.Capacity, res.Score = e.Capacity, e.Score
		}
	}
	res.Rounds = append(res.Rounds, r)
	return res
}

func (c *Controller) instrument(player string, eval EvaluateFunc) EvaluateFunc {
	return func(ctx context.Context, capacity int) (float64, error) {
		score, err := eval(ctx, capacity)
		if err != nil {
			return 0, err
		}
		metrics.RecordSearchEvaluation(score)
		c.logger.Debug(ctx, "candidate evaluated",
			logger.String("player", player),
			logger.Int("capacity", capacity),
			logger.Float64("score", score),
		)
		return score, nil
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	default:
		return "estimator"
	}
}
