// Package forest implements a bagged ensemble of gini CART trees for binary
// made/missed classification.
package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Default classifier configuration constants.
const (
	defaultTrees           = 100
	defaultMaxDepth        = 10
	defaultMinSamplesSplit = 2
	defaultSeed            = 42
)

// Classifier is a random forest. Fit must be called before predicting; a
// fitted Classifier is read-only and safe for concurrent prediction.
type Classifier struct {
	trees           int
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
	seed            int64
	parallelism     int

	nFeatures int
	ensemble  []*tree
}

// New creates an unfitted Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		trees:           defaultTrees,
		maxDepth:        defaultMaxDepth,
		minSamplesSplit: defaultMinSamplesSplit,
		seed:            defaultSeed,
		parallelism:     runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trees returns the configured ensemble size.
func (c *Classifier) Trees() int { return c.trees }

// Fit grows the ensemble on x (rows are samples) and 0/1 labels y. Tree i is
// seeded from the i-th draw of the base seed, so the fitted forest does not
// depend on goroutine scheduling.
func (c *Classifier) Fit(ctx context.Context, x mat.Matrix, y []int) error {
	if c.trees < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidTreeCount, c.trees)
	}
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return ErrEmptyInput
	}
	if len(y) != rows {
		return fmt.Errorf("%w: %d rows, %d labels", ErrShapeMismatch, rows, len(y))
	}

	features := make([][]float64, cols)
	for f := range cols {
		features[f] = mat.Col(nil, f, x)
	}
	maxFeatures := c.maxFeatures
	if maxFeatures == 0 || maxFeatures > cols {
		maxFeatures = max(1, int(math.Sqrt(float64(cols))))
	}

	seeds := make([]int64, c.trees)
	src := rand.New(rand.NewSource(c.seed)) //nolint:gosec // reproducibility, not security
	for i := range seeds {
		seeds[i] = src.Int63()
	}

	ensemble := make([]*tree, c.trees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i := range ensemble {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i])) //nolint:gosec // reproducibility, not security
			sample := make([]int, rows)
			for j := range sample {
				sample[j] = rng.Intn(rows)
			}
			b := &builder{
				cols:            features,
				labels:          y,
				maxDepth:        c.maxDepth,
				minSamplesSplit: c.minSamplesSplit,
				maxFeatures:     maxFeatures,
				rng:             rng,
				t:               &tree{},
			}
			b.grow(sample, 0)
			ensemble[i] = b.t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.nFeatures = cols
	c.ensemble = ensemble
	return nil
}

// PredictProbability returns the mean over trees of the leaf positive fraction.
func (c *Classifier) PredictProbability(row []float64) (float64, error) {
	if c.ensemble == nil {
		return 0, ErrNotFitted
	}
	if len(row) != c.nFeatures {
		return 0, fmt.Errorf("%w: want %d features, got %d", ErrShapeMismatch, c.nFeatures, len(row))
	}
	votes := make([]float64, len(c.ensemble))
	for i, t := range c.ensemble {
		votes[i] = t.predict(row)
	}
	return stat.Mean(votes, nil), nil
}

// Predict returns 1 when the made probability exceeds one half.
func (c *Classifier) Predict(row []float64) (int, error) {
	p, err := c.PredictProbability(row)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return 1, nil
	}
	return 0, nil
}

// Accuracy returns the fraction of rows of x whose prediction matches y.
func (c *Classifier) Accuracy(x mat.Matrix, y []int) (float64, error) {
	rows, _ := x.Dims()
	if rows != len(y) {
		return 0, fmt.Errorf("%w: %d rows, %d labels", ErrShapeMismatch, rows, len(y))
	}
	if rows == 0 {
		return 0, ErrEmptyInput
	}
	var correct int
	for i := range rows {
		pred, err := c.Predict(mat.Row(nil, i, x))
		if err != nil {
			return 0, err
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(rows), nil
}
