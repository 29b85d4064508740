package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"profile-service/internal/api"
)

func TestTraceHandler_StampsSpanIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(api.NewTraceHandler(slog.NewJSONHandler(&buf, nil)))

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "avatar updated")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, traceID.String(), line["trace_id"])
	require.Equal(t, spanID.String(), line["span_id"])
}

func TestTraceHandler_NoSpanNoIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(api.NewTraceHandler(slog.NewJSONHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "avatar updated")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.NotContains(t, line, "trace_id")
	require.NotContains(t, line, "span_id")
}
