package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, level string) *bytes.Buffer {
	t.Helper()

	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	InitLoggerWithWriter(Config{
		Level:       level,
		Format:      LogFormatJSON,
		ServiceName: "test-service",
		Version:     "1.0.0",
		Environment: EnvironmentTest,
	}, &buf)
	return &buf
}

func TestJSONLogging(t *testing.T) {
	buf := captureJSON(t, LogLevelInfo)

	Info("test message", "key", "value", "number", 42)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "test-service", entry[AttrKeyService])
	assert.Equal(t, "1.0.0", entry[AttrKeyVersion])
	assert.Equal(t, EnvironmentTest, entry[AttrKeyEnvironment])
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, float64(42), entry["number"])
}

func TestLevelFiltering(t *testing.T) {
	buf := captureJSON(t, LogLevelWarn)

	Debug("hidden")
	Info("hidden")
	assert.Zero(t, buf.Len())

	Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromContext_AddsRequestAndAttempt(t *testing.T) {
	buf := captureJSON(t, LogLevelInfo)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithAttemptID(ctx, "bank-42")
	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Equal(t, "bank-42", GetAttemptID(ctx))

	FromContext(ctx).Info("scoped")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-123", entry[AttrKeyRequestID])
	assert.Equal(t, "bank-42", entry[AttrKeyAttemptID])
}

func TestFromContext_Empty(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Empty(t, GetRequestID(context.Background()))
	assert.NotEmpty(t, GenerateRequestID())
}

func TestForEnvironment(t *testing.T) {
	prod := ForEnvironment(EnvironmentProduction)
	assert.True(t, prod.IsJSON())
	assert.Equal(t, slog.LevelInfo, prod.LogLevel())
	assert.False(t, prod.AddSource)

	dev := ForEnvironment(EnvironmentDevelopment)
	assert.False(t, dev.IsJSON())
	assert.Equal(t, slog.LevelDebug, dev.LogLevel())
	assert.True(t, dev.AddSource)

	assert.Equal(t, EnvironmentDev, ForEnvironment("").Environment)
	assert.Equal(t, slog.LevelWarn, Config{Level: "WARNING"}.LogLevel())
}

func TestNewConfig_Overrides(t *testing.T) {
	cfg := NewConfig("", "json", "", "1.2.3", EnvironmentDev)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel(), "empty level keeps the environment default")
	assert.True(t, cfg.IsJSON())
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.True(t, cfg.AddSource)
}
