package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := LogsConfig{CollectorEndpoint: "localhost:14317", ServiceName: "test", Insecure: true}

	provider, err := NewLoggerProvider(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, provider.IsEnabled())
	assert.Nil(t, provider.GetLoggerProvider())
	assert.Equal(t, cfg, provider.GetConfig())
	assert.NoError(t, provider.ForceFlush(ctx))
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestNewZapOTELCore_DisabledIsNop(t *testing.T) {
	core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "test"})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	disabled := &LoggerProvider{config: LogsConfig{}}
	core = NewZapOTELCore(ZapBridgeConfig{ServiceName: "test", LoggerProvider: disabled})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_EnabledWrapsLevel(t *testing.T) {
	sdk := sdklog.NewLoggerProvider()
	t.Cleanup(func() { _ = sdk.Shutdown(context.Background()) })
	lp := &LoggerProvider{provider: sdk, logger: zap.NewNop(), config: LogsConfig{Enabled: true}}

	core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "test", LoggerProvider: lp, Level: zapcore.WarnLevel})
	filtered, ok := core.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, filtered.minLevel)
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	l := zap.New(core).With(zap.String("component", "packing"))
	l.Info("skipped")
	l.Warn("kept")
	l.Error("kept too")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "packing", entries[0].ContextMap()["component"])
}

func TestNewBridgedLogger_TeesToBothCores(t *testing.T) {
	base, baseLogs := observer.New(zapcore.InfoLevel)
	otel, otelLogs := observer.New(zapcore.ErrorLevel)

	l := NewBridgedLogger(base, otel)
	l.Info("bundle sealed")
	l.Error("dispatch failed")

	assert.Equal(t, 2, baseLogs.Len())
	assert.Equal(t, 1, otelLogs.Len())
	assert.Equal(t, "dispatch failed", otelLogs.All()[0].Message)
}
