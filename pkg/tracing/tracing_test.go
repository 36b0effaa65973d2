package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) string {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "interviewsignal", cfg.ServiceName)
	assert.Equal(t, "http://localhost:14268/api/traces", cfg.JaegerURL)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInit_Disabled(t *testing.T) {
	tp, err := Init(DefaultConfig())
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestTraceSignalEvent(t *testing.T) {
	recorder := withRecorder(t)

	_, span := TraceSignalEvent(context.Background(), "interview:join", "u1", "c1")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "signal.interview:join", spans[0].Name())
	assert.Equal(t, "u1", attrValue(spans[0].Attributes(), UserIDKey))
	assert.Equal(t, "c1", attrValue(spans[0].Attributes(), ConnectionIDKey))
}

func TestTraceCollaboratorCall_RecordError(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := TraceCollaboratorCall(context.Background(), "access", "join")
	RecordError(ctx, errors.New("connection refused"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "access.join", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "access", attrValue(spans[0].Attributes(), ServiceKey))
}

func TestTraceRoomOperation_Attributes(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := TraceRoomOperation(context.Background(), "join", "r1", "i1")
	AddSpanAttributes(ctx, UserIDKey.String("u1"))
	MeasureDuration(ctx, time.Now().Add(-5*time.Millisecond), "join")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spans[0].Attributes()
	assert.Equal(t, "r1", attrValue(attrs, RoomIDKey))
	assert.Equal(t, "i1", attrValue(attrs, InterviewIDKey))
	assert.Equal(t, "u1", attrValue(attrs, UserIDKey))
	assert.NotEmpty(t, attrValue(attrs, DurationKey))
}

func TestHelpers_NoopWithoutProvider(t *testing.T) {
	ctx, span := TraceHTTPRequest(context.Background(), "GET", "/api/v1/presence")
	require.NotNil(t, span)
	AddSpanAttributes(ctx, attribute.String("k", "v"))
	RecordError(ctx, errors.New("ignored"))
	SetSpanStatus(ctx, codes.Ok, "")
	span.End()
}
