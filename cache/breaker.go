package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/rpccache/apierr"
	"github.com/jonwraymond/rpccache/resilience"
)

// BreakerStore guards a Store with a circuit breaker. While the circuit is
// open every call fails fast with a CacheError instead of waiting on a dead
// backend. Misses are not failures.
type BreakerStore struct {
	next Store
	cb   *resilience.CircuitBreaker
}

// NewBreakerStore wraps next with cb.
func NewBreakerStore(next Store, cb *resilience.CircuitBreaker) *BreakerStore {
	return &BreakerStore{next: next, cb: cb}
}

// Breaker returns the underlying circuit breaker.
func (s *BreakerStore) Breaker() *resilience.CircuitBreaker { return s.cb }

func (s *BreakerStore) run(ctx context.Context, op func(context.Context) error) error {
	err := s.cb.Execute(ctx, op)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return apierr.Cache(err)
	}
	return err
}

// Get retrieves a value through the breaker.
func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		val []byte
		ok  bool
	)
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		val, ok, err = s.next.Get(ctx, key)
		return err
	})
	return val, ok, err
}

// Set stores a value through the breaker.
func (s *BreakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.next.Set(ctx, key, value, ttl)
	})
}

// Delete removes a value through the breaker.
func (s *BreakerStore) Delete(ctx context.Context, key string) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.next.Delete(ctx, key)
	})
}

// Keys lists matching keys through the breaker.
func (s *BreakerStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		keys, err = s.next.Keys(ctx, pattern)
		return err
	})
	return keys, err
}

var _ Store = (*BreakerStore)(nil)
