package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/rpccache/observe"
)

var errBackend = errors.New("connection refused")

// mockStore wraps a MemoryStore and injects failures per operation.
type mockStore struct {
	*MemoryStore
	getErr    error
	setErr    error
	deleteErr error
	keysErr   error

	// deleteFailAfter fails Delete once this many deletes have succeeded (if > 0).
	deleteFailAfter int
	deletes         int

	gets atomic.Int32
	sets atomic.Int32
}

func newMockStore() *mockStore {
	return &mockStore{MemoryStore: NewMemoryStore()}
}

func (s *mockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.gets.Add(1)
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.sets.Add(1)
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

func (s *mockStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if s.deleteFailAfter > 0 && s.deletes >= s.deleteFailAfter {
		return errBackend
	}
	s.deletes++
	return s.MemoryStore.Delete(ctx, key)
}

func (s *mockStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if s.keysErr != nil {
		return nil, s.keysErr
	}
	return s.MemoryStore.Keys(ctx, pattern)
}

// mockMetrics records cache metrics calls.
type mockMetrics struct {
	mu            sync.Mutex
	lookups       map[string]int
	invalidations []int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{lookups: make(map[string]int)}
}

func (m *mockMetrics) RecordCall(context.Context, observe.RPCMeta, string, time.Duration, error) {}

func (m *mockMetrics) RecordCacheLookup(_ context.Context, _ string, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups[result]++
}

func (m *mockMetrics) RecordInvalidation(_ context.Context, _ string, keys int, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidations = append(m.invalidations, keys)
}

func (m *mockMetrics) lookupCount(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups[result]
}

// fakeClock is a manually advanced clock for MemoryStore.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
