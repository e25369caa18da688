package kvstore

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memory implements Store on a bounded in-process LRU. It is intended
// for tests and single-process deployments without a store URL; eviction
// of live entries just looks like a cache miss to callers.
type Memory struct {
	mu      sync.Mutex
	entries *lru.Cache[string, memoryEntry]
}

type memoryEntry struct {
	value     []byte
	numValue  float64
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired() bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(time.Now())
}

// NewMemory creates a Memory store holding at most size entries.
func NewMemory(size int) (*Memory, error) {
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &Memory{entries: entries}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries.Get(key)
	if !ok || e.expired() {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Add(key, memoryEntry{value: value, expiresAt: expiresAt(ttl)})
	return nil
}

func (m *Memory) IncrByFloat(_ context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries.Get(key)
	if !ok || e.expired() {
		e = memoryEntry{}
	}
	e.numValue += delta
	e.expiresAt = expiresAt(ttl)
	m.entries.Add(key, e)
	return e.numValue, nil
}

func (m *Memory) GetFloat(_ context.Context, key string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries.Get(key)
	if !ok || e.expired() {
		return 0, false, nil
	}
	return e.numValue, true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Remove(key)
	return nil
}

func (m *Memory) Close() error {
	m.entries.Purge()
	return nil
}

func expiresAt(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
