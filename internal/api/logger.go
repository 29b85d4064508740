package api

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// TraceHandler stamps every record emitted inside an active span with the
// trace and span identifiers, so profile mutations and avatar uploads can be
// correlated with their traces.
type TraceHandler struct {
	next slog.Handler
}

func NewTraceHandler(next slog.Handler) *TraceHandler {
	return &TraceHandler{next: next}
}

func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return h.next.Handle(ctx, r)
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return NewTraceHandler(h.next.WithGroup(name))
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewTraceHandler(h.next.WithAttrs(attrs))
}

// logLevel maps LOG_LEVEL ("debug", "info", "warn", "error") to a slog level,
// defaulting to info when unset or unparseable.
func logLevel() slog.Level {
	var level slog.Level
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err == nil {
			return level
		}
	}
	return slog.LevelInfo
}

// SetupGlobalHandler installs the process-wide JSON logger. Every line carries
// the service name; lines logged under a span also carry trace_id and span_id.
func SetupGlobalHandler(serviceName string) {
	level := logLevel()
	handler := NewTraceHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(slog.New(handler).With(slog.String("service", serviceName)))

	slog.Info("Logger initialized", "service", serviceName, "level", level.String())
}
