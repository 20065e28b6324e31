// Package cache stores capacity search outcomes so retraining an unchanged
// dataset can skip the search.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/okian/swish/internal/domain/training"
)

// keyPrefix namespaces capacity entries in shared stores.
const keyPrefix = "swish:capacity:"

// Memory is an in-process capacity cache with optional expiry.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   training.CachedCapacity
	expires time.Time
}

var _ training.CapacityCache = (*Memory)(nil)

// NewMemory creates an in-memory cache. A zero ttl keeps entries forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

// Get returns the entry for key if present and not expired.
func (m *Memory) Get(_ context.Context, key string) (training.CachedCapacity, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[keyPrefix+key]
	m.mu.RUnlock()
	if !ok {
		return training.CachedCapacity{}, false, nil
	}
	if m.expired(e) {
		// A Set may have refreshed the key since the read lock was released.
		m.mu.Lock()
		defer m.mu.Unlock()
		e, ok = m.entries[keyPrefix+key]
		if !ok {
			return training.CachedCapacity{}, false, nil
		}
		if m.expired(e) {
			delete(m.entries, keyPrefix+key)
			return training.CachedCapacity{}, false, nil
		}
	}
	return e.value, true, nil
}

func (m *Memory) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

// Set stores v under key.
func (m *Memory) Set(_ context.Context, key string, v training.CachedCapacity) error {
	e := memoryEntry{value: v}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[keyPrefix+key] = e
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Store is a capacity cache that can release its resources.
type Store interface {
	training.CapacityCache
	Close() error
}

// New returns a Redis-backed cache when addr is set and an in-memory one otherwise.
// addr may be host:port or a redis:// URL.
func New(ctx context.Context, addr string, ttl time.Duration) (Store, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return NewMemory(ttl), nil
	}
	return NewRedis(ctx, addr, ttl)
}
