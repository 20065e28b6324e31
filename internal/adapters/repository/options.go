package repository

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithSeed fixes the treap priority source, making tree shape reproducible.
func WithSeed(seed int64) Option {
	return func(r *Registry) { r.seed = seed }
}
