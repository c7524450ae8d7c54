package resilience

import (
	"context"
	"time"
)

// Executor composes a circuit breaker, retry and per-attempt timeout.
// The order from outside in is breaker, retry, timeout.
type Executor struct {
	breaker *CircuitBreaker
	retry   *RetryConfig
	timeout time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an Executor. With no options it just calls op.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker guards the whole retried call with cb.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.breaker = cb }
}

// WithRetry retries failed attempts per cfg.
func WithRetry(cfg RetryConfig) ExecutorOption {
	return func(e *Executor) { e.retry = &cfg }
}

// WithTimeout bounds each attempt to d.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = d }
}

// Execute runs op through the configured layers.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	call := op

	if e.timeout > 0 {
		inner := call
		call = func(ctx context.Context) error { return ExecuteWithTimeout(ctx, e.timeout, inner) }
	}
	if e.retry != nil {
		inner, cfg := call, *e.retry
		call = func(ctx context.Context) error { return Retry(ctx, cfg, inner) }
	}
	if e.breaker != nil {
		inner := call
		call = func(ctx context.Context) error { return e.breaker.Execute(ctx, inner) }
	}

	return call(ctx)
}
