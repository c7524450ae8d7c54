package observe

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ParseLogLevel maps debug, info, warn and error to a slog level. Anything
// else is info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// structuredLogger writes one JSON object per entry through slog.
type structuredLogger struct {
	l *slog.Logger
}

// NewLoggerWithWriter returns a JSON Logger writing to w. Entries carry
// timestamp, level and msg keys plus the trace and span ids of the context,
// and RedactedFields values are masked.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLogLevel(level),
		ReplaceAttr: replaceAttr,
	})
	return &structuredLogger{l: slog.New(h)}
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("timestamp", a.Value.Time().UTC().Format(time.RFC3339Nano))
	case slog.LevelKey:
		return slog.String(slog.LevelKey, strings.ToLower(a.Value.String()))
	}
	if redactedKeys[a.Key] {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}

var redactedKeys = func() map[string]bool {
	m := make(map[string]bool, len(RedactedFields))
	for _, k := range RedactedFields {
		m[k] = true
	}
	return m
}()

func toAttr(f Field) slog.Attr {
	if err, ok := f.Value.(error); ok {
		return slog.String(f.Key, err.Error())
	}
	return slog.Any(f.Key, f.Value)
}

func toAttrs(fields []Field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = toAttr(f)
	}
	return out
}

// With returns a logger that adds fields to every entry.
func (s *structuredLogger) With(fields ...Field) Logger {
	return &structuredLogger{l: s.l.With(toAttrs(fields)...)}
}

// WithRPC returns a logger carrying the method identity of one call.
func (s *structuredLogger) WithRPC(meta RPCMeta) Logger {
	fields := []Field{F("rpc.method", meta.FullMethod())}
	if meta.Service != "" {
		fields = append(fields, F("rpc.service", meta.Service))
	}
	if meta.CacheMethod != "" {
		fields = append(fields, F("rpc.cache_method", meta.CacheMethod))
	}
	return s.With(fields...)
}

func (s *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, slog.LevelInfo, msg, fields)
}

func (s *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, slog.LevelWarn, msg, fields)
}

func (s *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, slog.LevelError, msg, fields)
}

func (s *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, slog.LevelDebug, msg, fields)
}

func (s *structuredLogger) log(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.l.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(fields)+2)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	for _, f := range fields {
		attrs = append(attrs, toAttr(f))
	}
	s.l.LogAttrs(ctx, level, msg, attrs...)
}

var _ Logger = (*structuredLogger)(nil)
