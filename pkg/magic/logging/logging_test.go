package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hsiuhsiu/go-magic/pkg/magic/logging"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := logging.New(slog.New(handler)).With("session", "s1")
	logger.Debug(context.Background(), "magic database loaded", "paths", "a.mgc")
	logger.Warn(context.Background(), "magic failure ignored", "op", "load")

	out := buf.String()
	assert.Contains(t, out, `level=DEBUG msg="magic database loaded" session=s1 paths=a.mgc`)
	assert.Contains(t, out, `level=WARN msg="magic failure ignored" session=s1 op=load`)
}

func TestNewNilUsesDefault(t *testing.T) {
	require.NotNil(t, logging.New(nil))
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	logger := logging.NewZap(zap.New(core)).With("session", "s1")
	logger.Info(context.Background(), "magic flags set", "flags", "MIME_TYPE|ERROR")
	logger.Error(context.Background(), "boom")

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "magic flags set", entries[0].Message)
	assert.Equal(t, map[string]any{"session": "s1", "flags": "MIME_TYPE|ERROR"}, entries[0].ContextMap())

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestDiscard(t *testing.T) {
	logger := logging.Discard().With("k", "v")
	logger.Error(context.Background(), "dropped")
	assert.Equal(t, logging.Discard(), logger)
}
