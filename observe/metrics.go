package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Cache lookup results reported through RecordCacheLookup.
const (
	CacheResultHit   = "hit"
	CacheResultMiss  = "miss"
	CacheResultError = "error"
)

// Metrics records server and cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records an RPC with its status code, duration and error.
	RecordCall(ctx context.Context, meta RPCMeta, code string, duration time.Duration, err error)

	// RecordCacheLookup records the outcome of a cache lookup for a method.
	RecordCacheLookup(ctx context.Context, method string, result string)

	// RecordInvalidation records an invalidation and the number of keys removed.
	RecordInvalidation(ctx context.Context, mode string, keys int, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	callCount     metric.Int64Counter
	errorCount    metric.Int64Counter
	durationHist  metric.Float64Histogram
	lookupCount   metric.Int64Counter
	invalidations metric.Int64Counter
	evictedKeys   metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	callCount, err := meter.Int64Counter(
		"rpc.server.calls",
		metric.WithDescription("Total number of RPCs handled"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"rpc.server.errors",
		metric.WithDescription("Total number of RPCs that returned an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"rpc.server.duration_ms",
		metric.WithDescription("RPC handling duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	lookupCount, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Cache lookups by method and result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	invalidations, err := meter.Int64Counter(
		"cache.invalidations",
		metric.WithDescription("Cache invalidation requests by mode"),
		metric.WithUnit("{invalidation}"),
	)
	if err != nil {
		return nil, err
	}

	evictedKeys, err := meter.Int64Counter(
		"cache.invalidated_keys",
		metric.WithDescription("Cache keys removed by invalidation"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		callCount:     callCount,
		errorCount:    errorCount,
		durationHist:  durationHist,
		lookupCount:   lookupCount,
		invalidations: invalidations,
		evictedKeys:   evictedKeys,
	}, nil
}

// RecordCall records metrics for a handled RPC.
func (m *metricsImpl) RecordCall(ctx context.Context, meta RPCMeta, code string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("rpc.method", meta.FullMethod()),
		attribute.String("rpc.code", code),
	}
	opt := metric.WithAttributes(attrs...)

	m.callCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordCacheLookup records a cache lookup outcome.
func (m *metricsImpl) RecordCacheLookup(ctx context.Context, method string, result string) {
	m.lookupCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.method", method),
		attribute.String("cache.result", result),
	))
}

// RecordInvalidation records an invalidation request.
func (m *metricsImpl) RecordInvalidation(ctx context.Context, mode string, keys int, err error) {
	opt := metric.WithAttributes(
		attribute.String("cache.invalidation_mode", mode),
		attribute.Bool("cache.error", err != nil),
	)
	m.invalidations.Add(ctx, 1, opt)
	if keys > 0 {
		m.evictedKeys.Add(ctx, int64(keys), opt)
	}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NopMetrics returns a Metrics implementation that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordCall(context.Context, RPCMeta, string, time.Duration, error) {}
func (noopMetrics) RecordCacheLookup(context.Context, string, string)                 {}
func (noopMetrics) RecordInvalidation(context.Context, string, int, error)            {}
