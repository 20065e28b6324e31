// Package scoring rates and fits random forests on player training sets: a
// stratified k-fold cross-validated accuracy for the capacity search, and a
// seeded holdout split for the final model.
package scoring

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/okian/swish/internal/domain/forest"
	"github.com/okian/swish/internal/domain/search"
	"github.com/okian/swish/internal/domain/shot"
	"gonum.org/v1/gonum/stat"
)

// Default scoring configuration constants.
const (
	defaultFolds        = 3
	defaultMaxDepth     = 10
	defaultRandomSeed   = 42
	defaultTestFraction = 0.2
)

// ForestScorer implements search.Estimator with random forests.
type ForestScorer struct {
	folds        int
	maxDepth     int
	seed         int64
	testFraction float64
	parallelism  int
}

var _ search.Estimator = (*ForestScorer)(nil)

// NewForestScorer creates a scorer with configuration options.
func NewForestScorer(opts ...Option) *ForestScorer {
	s := &ForestScorer{
		folds:        defaultFolds,
		maxDepth:     defaultMaxDepth,
		seed:         defaultRandomSeed,
		testFraction: defaultTestFraction,
		parallelism:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CrossValidatedScore returns the mean accuracy of capacity-tree forests over
// stratified, unshuffled folds.
func (s *ForestScorer) CrossValidatedScore(ctx context.Context, set shot.TrainingSet, capacity int) (float64, error) {
	labels := set.Labels()
	folds, err := StratifiedFolds(labels, s.folds)
	if err != nil {
		return 0, fmt.Errorf("cross-validate %q: %w", set.Player, err)
	}

	scores := make([]float64, len(folds))
	for i, testIdx := range folds {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		trainIdx := complement(len(labels), testIdx)
		train, test := set.Subset(trainIdx), set.Subset(testIdx)
		if rate := train.MadeRate(); rate == 0 || rate == 1 {
			return 0, fmt.Errorf("cross-validate %q: %w: fold %d trains on a single class", set.Player, ErrDegenerateFold, i)
		}

		clf, err := s.fit(ctx, train, capacity)
		if err != nil {
			return 0, fmt.Errorf("cross-validate %q fold %d: %w", set.Player, i, err)
		}
		if scores[i], err = clf.Accuracy(test.Matrix(), test.Labels()); err != nil {
			return 0, fmt.Errorf("cross-validate %q fold %d: %w", set.Player, i, err)
		}
	}
	return stat.Mean(scores, nil), nil
}

// Fit trains a capacity-tree forest on the whole set.
func (s *ForestScorer) Fit(ctx context.Context, set shot.TrainingSet, capacity int) (search.Predictor, error) {
	if set.Empty() {
		return nil, fmt.Errorf("fit %q: %w", set.Player, search.ErrEmptyTrainingSet)
	}
	clf, err := s.fit(ctx, set, capacity)
	if err != nil {
		return nil, fmt.Errorf("fit %q: %w", set.Player, err)
	}
	return clf, nil
}

func (s *ForestScorer) fit(ctx context.Context, set shot.TrainingSet, capacity int) (*forest.Classifier, error) {
	clf := forest.New(
		forest.WithTrees(capacity),
		forest.WithMaxDepth(s.maxDepth),
		forest.WithSeed(s.seed),
		forest.WithParallelism(s.parallelism),
	)
	if err := clf.Fit(ctx, set.Matrix(), set.Labels()); err != nil {
		return nil, err
	}
	return clf, nil
}

// Key encodes the settings that affect scores and splits. Parallelism is
// left out because it does not change results.
func (s *ForestScorer) Key() string {
	return fmt.Sprintf("k%d-d%d-s%d-t%g", s.folds, s.maxDepth, s.seed, s.testFraction)
}

// Split shuffles the set with the scorer's seed and returns train and test
// partitions; the test partition holds ceil(testFraction*n) records.
func (s *ForestScorer) Split(set shot.TrainingSet) (train, test shot.TrainingSet, err error) {
	n := set.Len()
	nTest := int(math.Ceil(s.testFraction * float64(n)))
	if nTest < 1 || nTest >= n {
		return train, test, fmt.Errorf("split %q: %w: %d records", set.Player, ErrEmptySplit, n)
	}
	perm := rand.New(rand.NewSource(s.seed)).Perm(n) //nolint:gosec // reproducible split
	return set.Subset(perm[nTest:]), set.Subset(perm[:nTest]), nil
}

// Accuracy returns the share of records in set that p classifies correctly.
func Accuracy(p search.Predictor, set shot.TrainingSet) (float64, error) {
	if set.Empty() {
		return 0, fmt.Errorf("accuracy %q: %w", set.Player, ErrEmptySplit)
	}
	var correct int
	for _, r := range set.Records {
		prob, err := p.PredictProbability(shot.Encode(r.ShotX, r.ShotY, r.Distance, r.ShotType))
		if err != nil {
			return 0, err
		}
		if (prob > 0.5) == r.Made {
			correct++
		}
	}
	return float64(correct) / float64(set.Len()), nil
}

// StratifiedFolds assigns sample indices to k test folds preserving class
// proportions. Samples keep their input order within each class: the first
// members of a class fill fold 0, the next fold 1, and so on.
func StratifiedFolds(labels []int, k int) ([][]int, error) {
	n := len(labels)
	if k < 2 || n < k {
		return nil, fmt.Errorf("%w: %d samples for %d folds", ErrDegenerateFold, n, k)
	}

	var classCount [2]int
	for _, l := range labels {
		classCount[l]++
	}

	// Deal the class-sorted label sequence round-robin to get per-fold quotas.
	quota := make([][2]int, k)
	for p := range n {
		class := 0
		if p >= classCount[0] {
			class = 1
		}
		quota[p%k][class]++
	}

	folds := make([][]int, k)
	var next [2]int // current fold per class
	for i, l := range labels {
		for quota[next[l]][l] == 0 {
			next[l]++
		}
		folds[next[l]] = append(folds[next[l]], i)
		quota[next[l]][l]--
	}

	for i, f := range folds {
		if len(f) == 0 {
			return nil, fmt.Errorf("%w: fold %d is empty", ErrDegenerateFold, i)
		}
	}
	return folds, nil
}

func complement(n int, idx []int) []int {
	skip := make([]bool, n)
	for _, i := range idx {
		skip[i] = true
	}
	out := make([]int, 0, n-len(idx))
	for i := range n {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}
