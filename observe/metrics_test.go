package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		return 0
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", name, found.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordCall(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	meta := RPCMeta{Service: "echo.v1.EchoService", Method: "UnaryEcho"}

	m.RecordCall(ctx, meta, "ok", 10*time.Millisecond, nil)
	m.RecordCall(ctx, meta, "invalid-argument", 2*time.Millisecond, errors.New("bad"))

	rm := collect(t, reader)
	if got := sumValue(t, rm, "rpc.server.calls"); got != 2 {
		t.Errorf("rpc.server.calls = %d, want 2", got)
	}
	if got := sumValue(t, rm, "rpc.server.errors"); got != 1 {
		t.Errorf("rpc.server.errors = %d, want 1", got)
	}
	if findMetric(rm, "rpc.server.duration_ms") == nil {
		t.Error("rpc.server.duration_ms not recorded")
	}
}

func TestMetrics_RecordCacheLookup(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCacheLookup(ctx, "unary_echo", CacheResultMiss)
	m.RecordCacheLookup(ctx, "unary_echo", CacheResultHit)
	m.RecordCacheLookup(ctx, "unary_echo", CacheResultHit)

	rm := collect(t, reader)
	if got := sumValue(t, rm, "cache.lookups"); got != 3 {
		t.Errorf("cache.lookups = %d, want 3", got)
	}
}

func TestMetrics_RecordInvalidation(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordInvalidation(context.Background(), "pattern", 4, nil)
	m.RecordInvalidation(context.Background(), "exact", 0, nil)

	rm := collect(t, reader)
	if got := sumValue(t, rm, "cache.invalidations"); got != 2 {
		t.Errorf("cache.invalidations = %d, want 2", got)
	}
	if got := sumValue(t, rm, "cache.invalidated_keys"); got != 4 {
		t.Errorf("cache.invalidated_keys = %d, want 4", got)
	}
}

func TestNopMetrics_NoPanic(t *testing.T) {
	m := NopMetrics()
	ctx := context.Background()
	m.RecordCall(ctx, RPCMeta{Method: "x"}, "ok", time.Millisecond, nil)
	m.RecordCacheLookup(ctx, "x", CacheResultHit)
	m.RecordInvalidation(ctx, "exact", 1, nil)
}
