package observe

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// RPCMeta contains metadata about an RPC for telemetry purposes.
type RPCMeta struct {
	Service     string // Fully qualified service name (e.g. echo.v1.EchoService)
	Method      string // Method name (required)
	CacheMethod string // Cache namespace for the method, if it is cached (optional)
}

// ParseFullMethod splits a gRPC full method name ("/pkg.Service/Method").
func ParseFullMethod(fullMethod string) RPCMeta {
	trimmed := strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return RPCMeta{Service: trimmed[:i], Method: trimmed[i+1:]}
	}
	return RPCMeta{Method: trimmed}
}

// FullMethod returns the gRPC-style full method name.
// Format: /<service>/<method> or <method>
func (m RPCMeta) FullMethod() string {
	if m.Service != "" {
		return "/" + m.Service + "/" + m.Method
	}
	return m.Method
}

// SpanName returns the deterministic span name for this RPC.
// Format: rpc.server.<service>.<method> or rpc.server.<method>
func (m RPCMeta) SpanName() string {
	if m.Service != "" {
		return "rpc.server." + m.Service + "." + m.Method
	}
	return "rpc.server." + m.Method
}

// Tracer wraps OpenTelemetry tracing with RPC-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new server span for an RPC.
	StartSpan(ctx context.Context, meta RPCMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with RPC metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta RPCMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("rpc.system", "grpc"),
		attribute.String("rpc.method", meta.Method),
		attribute.Bool("rpc.error", false),
	}
	if meta.Service != "" {
		attrs = append(attrs, attribute.String("rpc.service", meta.Service))
	}
	if meta.CacheMethod != "" {
		attrs = append(attrs, attribute.String("rpc.cache_method", meta.CacheMethod))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("rpc.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a no-op tracer.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta RPCMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
