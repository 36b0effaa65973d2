package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextLogger_AddsIDsFromContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cl := NewContextLogger(zap.New(core))

	ctx := WithConnectionID(WithUserID(WithTraceID(context.Background(), "t-1"), "u-1"), "c-1")
	cl.LogError(ctx, errors.New("boom"), "relay failed")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "c-1", fields["connection_id"])
	assert.Equal(t, "boom", fields["error"])
}

func TestContextLogger_NoFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cl := NewContextLogger(zap.New(core))

	cl.LogInfo(context.Background(), "hello")

	require.Len(t, logs.All(), 1)
	assert.Empty(t, logs.All()[0].ContextMap())
}

func TestNew_UnknownLevelFallsBack(t *testing.T) {
	l := New("loud")
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}
