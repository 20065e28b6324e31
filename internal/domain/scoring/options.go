package scoring

// Option applies a configuration option to the ForestScorer.
type Option func(*ForestScorer)

// WithFolds sets the number of stratified folds. Values below 2 are ignored.
func WithFolds(k int) Option {
	return func(s *ForestScorer) {
		if k >= 2 {
			s.folds = k
		}
	}
}

// WithMaxDepth caps the depth of every tree the scorer grows.
func WithMaxDepth(depth int) Option {
	return func(s *ForestScorer) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithSeed sets the seed shared by forest fitting and the holdout shuffle.
func WithSeed(seed int64) Option {
	return func(s *ForestScorer) { s.seed = seed }
}

// WithTestFraction sets the holdout share, in (0,1).
func WithTestFraction(f float64) Option {
	return func(s *ForestScorer) {
		if f > 0 && f < 1 {
			s.testFraction = f
		}
	}
}

// WithParallelism bounds concurrent tree fitting per forest.
func WithParallelism(n int) Option {
	return func(s *ForestScorer) {
		if n > 0 {
			s.parallelism = n
		}
	}
}
