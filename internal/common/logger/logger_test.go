package logger

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "list-matches"})

	log.Info("job completed", map[string]interface{}{"userId": "u1", "count": 3})
	log.WithError(stderrors.New("boom")).Warn("cache read failed", nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "list-matches", ctx["taskType"])
	assert.Equal(t, "u1", ctx["userId"])
	assert.EqualValues(t, 3, ctx["count"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNew(t *testing.T) {
	l, err := New("warn", "json", "stderr")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}
