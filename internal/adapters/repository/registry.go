// Package repository keeps trained player models and ranks them by holdout accuracy.
package repository

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/swish/internal/domain/training"
	"github.com/okian/swish/pkg/metrics"
)

// Entry is one leaderboard row.
type Entry struct {
	Rank      int       `json:"rank"`
	Player    string    `json:"player"`
	Accuracy  float64   `json:"accuracy"`
	CVScore   float64   `json:"cv_score"`
	Capacity  int       `json:"capacity"`
	Samples   int       `json:"samples"`
	TrainedAt time.Time `json:"trained_at"`
}

// Registry holds the latest model per player. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	root   *node
	models map[string]*training.Model
	seed   int64
	rng    *rand.Rand
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		models: make(map[string]*training.Model),
		seed:   time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.rng = rand.New(rand.NewSource(r.seed)) //nolint:gosec // treap priorities only
	return r
}

// Put stores m as the player's current model, replacing any previous one.
func (r *Registry) Put(_ context.Context, m *training.Model) error {
	if !m.Trained() || m.Player == "" {
		return fmt.Errorf("%w: model must be trained and name a player", ErrInvalidModel)
	}

	r.mu.Lock()
	if old, ok := r.models[m.Player]; ok {
		r.root = remove(r.root, old.Player, old.Accuracy)
	}
	r.models[m.Player] = m
	r.root = insert(r.root, m.Player, m.Accuracy, r.rng.Uint64())
	count := len(r.models)
	r.mu.Unlock()

	metrics.UpdateModelsTotal(count)
	return nil
}

// Get returns the player's current model.
func (r *Registry) Get(_ context.Context, player string) (*training.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[player]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, player)
	}
	return m, nil
}

// Rank returns the player's leaderboard row in O(log n).
func (r *Registry) Rank(_ context.Context, player string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[player]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, player)
	}
	return entry(position(r.root, m.Player, m.Accuracy)+1, m), nil
}

// TopN returns up to n rows ordered by accuracy desc, then player asc.
func (r *Registry) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	players := make([]string, 0, min(n, len(r.models)))
	collect(r.root, n, &players)

	out := make([]Entry, len(players))
	for i, p := range players {
		out[i] = entry(i+1, r.models[p])
	}
	return out, nil
}

// Count returns the number of players with a model.
func (r *Registry) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

func entry(rank int, m *training.Model) Entry {
	return Entry{
		Rank:      rank,
		Player:    m.Player,
		Accuracy:  m.Accuracy,
		CVScore:   m.CVScore,
		Capacity:  m.Capacity,
		Samples:   m.Samples,
		TrainedAt: m.TrainedAt,
	}
}
