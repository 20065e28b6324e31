package forest

// Option configures a Classifier.
type Option func(*Classifier)

// WithTrees sets the ensemble size.
func WithTrees(n int) Option {
	return func(c *Classifier) { c.trees = n }
}

// WithMaxDepth caps tree depth. Non-positive values are ignored.
func WithMaxDepth(depth int) Option {
	return func(c *Classifier) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithMinSamplesSplit sets the minimum node size that may be split.
func WithMinSamplesSplit(n int) Option {
	return func(c *Classifier) {
		if n >= 2 {
			c.minSamplesSplit = n
		}
	}
}

// WithMaxFeatures sets how many features are tried per split. Zero means sqrt(features).
func WithMaxFeatures(n int) Option {
	return func(c *Classifier) {
		if n >= 0 {
			c.maxFeatures = n
		}
	}
}

// WithSeed sets the base seed tree seeds are derived from.
func WithSeed(seed int64) Option {
	return func(c *Classifier) { c.seed = seed }
}

// WithParallelism bounds how many trees are grown at once.
func WithParallelism(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.parallelism = n
		}
	}
}
