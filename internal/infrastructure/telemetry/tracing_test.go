package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/erp/production/internal/infrastructure/telemetry"
)

// setupTestTracer installs a recording global tracer provider for one test.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)
	bundleID := uuid.New()

	ctx, span := telemetry.StartServiceSpan(context.Background(), "packing", "seal",
		telemetry.WithAttribute(telemetry.SpanAttrBundleID, bundleID),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	assert.NotEmpty(t, telemetry.GetSpanID(ctx))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "packing.seal", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, bundleID.String(), attrMap(spans[0])[telemetry.SpanAttrBundleID].AsString())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "ledger.report")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrProcessName, "cutting",
		telemetry.SpanAttrQuantity, 40,
		42, "ignored",
		"rework", true,
		"ratio", 0.5,
		"steps", []string{"cutting", "welding"},
		"counts", []int64{1, 2},
	)
	telemetry.SetAttribute(span, telemetry.SpanAttrLineCount, int64(3))
	telemetry.SetAttribute(span, "struct", struct{ A int }{7})
	span.End()

	attrs := attrMap(sr.Ended()[0])
	assert.Equal(t, "cutting", attrs[telemetry.SpanAttrProcessName].AsString())
	assert.Equal(t, int64(40), attrs[telemetry.SpanAttrQuantity].AsInt64())
	assert.True(t, attrs["rework"].AsBool())
	assert.Equal(t, 0.5, attrs["ratio"].AsFloat64())
	assert.Equal(t, []string{"cutting", "welding"}, attrs["steps"].AsStringSlice())
	assert.Equal(t, []int64{1, 2}, attrs["counts"].AsInt64Slice())
	assert.Equal(t, int64(3), attrs[telemetry.SpanAttrLineCount].AsInt64())
	assert.Equal(t, "{7}", attrs["struct"].AsString())
	assert.Len(t, attrs, 8)
}

func TestRecordErrorAndOK(t *testing.T) {
	sr := setupTestTracer(t)

	_, failed := telemetry.StartSpan(context.Background(), "dispatch.create")
	telemetry.RecordError(failed, errors.New("bundle already dispatched"))
	failed.End()

	_, ok := telemetry.StartSpan(context.Background(), "dispatch.update")
	telemetry.RecordError(ok, nil)
	telemetry.SetOK(ok)
	ok.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "bundle already dispatched", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
	assert.Empty(t, spans[1].Events())
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "packing.seal")
	telemetry.AddEvent(span, "qr_generated", telemetry.SpanAttrQRID, "QR-0001")
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "qr_generated", events[0].Name)
	assert.Equal(t, "QR-0001", events[0].Attributes[0].Value.AsString())
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "e")
	})
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))
}
