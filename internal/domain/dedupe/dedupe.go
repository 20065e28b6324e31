// Package dedupe tracks in-flight keys so the same player is not queued twice.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// Default deduper configuration constants.
const (
	defaultMaxSize = 10_000
)

// Deduper records keys currently in flight.
type Deduper interface {
	// SeenAndRecord atomically checks whether key is recorded and records it if not.
	// Returns true if key was already present.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key, e.g. when its job finishes or could not be queued.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper is a bounded set; when full, the oldest key is evicted.
type inMemoryDeduper struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List // front = oldest
	index   map[string]*list.Element
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.order = list.New()
	d.index = make(map[string]*list.Element)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[key]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		delete(d.index, oldest.Value.(string))
		d.order.Remove(oldest)
	}
	d.index[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.index[key]; ok {
		d.order.Remove(e)
		delete(d.index, key)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}
