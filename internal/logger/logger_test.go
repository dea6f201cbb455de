package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestContextHelpers verifies that loggers travel through the context and fall back to global.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))

	ctx := WithName(context.Background(), "endstone")
	named := FromContext(ctx)
	require.NotNil(t, named)
	require.NotSame(t, Logger(), named)

	ctx = WithKV(ctx, "version", "1.20.0")
	require.NotSame(t, named, FromContext(ctx))
}

// TestNew_RespectsLevel checks that a logger built with an explicit level filters below it.
func TestNew_RespectsLevel(t *testing.T) {
	t.Parallel()

	l := New(zapcore.WarnLevel)
	require.False(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	require.True(t, l.Desugar().Core().Enabled(zapcore.ErrorLevel))
}
