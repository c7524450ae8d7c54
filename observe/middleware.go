package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the signature for RPC handler execution.
// This is the standard function signature that Middleware wraps.
type ExecuteFunc func(ctx context.Context, meta RPCMeta, request any) (any, error)

// CodeFunc maps a handler error to the status code reported in metrics and logs.
type CodeFunc func(err error) string

// DefaultCode reports "ok" for nil and "error" otherwise.
func DefaultCode(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware wraps RPC execution with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
//   - Ownership: Request/response values are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	code    CodeFunc
}

// NewMiddleware creates a new Middleware with the given observability components.
// If code is nil, DefaultCode is used.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger, code CodeFunc) *Middleware {
	if code == nil {
		code = DefaultCode
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		code:    code,
	}
}

// Wrap wraps an ExecuteFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta RPCMeta, request any) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta, request)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)

		code := m.code(err)
		m.metrics.RecordCall(ctx, meta, code, duration, err)

		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
			{Key: "code", Value: code},
		}
		rpcLogger := m.logger.WithRPC(meta)
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			rpcLogger.Warn(ctx, "rpc failed", fields...)
		} else {
			rpcLogger.Info(ctx, "rpc completed", fields...)
		}

		return result, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer, code CodeFunc) (*Middleware, Metrics, error) {
	if obs == nil {
		return nil, nil, ErrNilObserver
	}
	tracer := NewTracer(obs.Tracer())

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, nil, err
	}

	return NewMiddleware(tracer, metrics, obs.Logger(), code), metrics, nil
}
