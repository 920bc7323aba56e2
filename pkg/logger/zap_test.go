package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestToZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, toZapLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, toZapLevel("WARN"))
	assert.Equal(t, zapcore.InfoLevel, toZapLevel("verbose"))
}

func TestZapLogger_KeysAndValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core)).With("component", "test")

	l.Info("fetched tile", "style", "_", "z", 3)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "fetched tile", entries[0].Message)
		assert.Equal(t, "test", fields["component"])
		assert.Equal(t, "_", fields["style"])
		assert.EqualValues(t, 3, fields["z"])
	}
}

func TestFromContext(t *testing.T) {
	assert.IsType(t, &noOpLogger{}, FromContext(context.Background()))

	l := NewFromZap(zap.NewNop())
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
