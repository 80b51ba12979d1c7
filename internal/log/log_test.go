package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")

	logger, err := New(Config{
		Level:    "debug",
		FilePath: logPath,
	})
	require.NoError(t, err)

	SetDefaultLogger(logger)
	t.Cleanup(func() { SetDefaultLogger(nil) })

	Debug("Debug message", "test", true)
	Info("Info message", "test", true)
	Warn("Warning message", "test", true)
	Error("Error message", "error", fmt.Errorf("test error"))
	Trace("Trace message")

	logger.Close()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)

	contentStr := string(content)
	assert.Contains(t, contentStr, "Debug message")
	assert.Contains(t, contentStr, "Info message")
	assert.Contains(t, contentStr, "Warning message")
	assert.Contains(t, contentStr, "Error message")
	assert.Contains(t, contentStr, "test error")
	// Trace is only emitted at the trace level
	assert.NotContains(t, contentStr, "Trace message")
}

func TestLevelsAndAttributes(t *testing.T) {
	t.Run("TraceLevel", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, "trace")

		logger.Trace("raw event", "event", "file-loaded")

		assert.Contains(t, buf.String(), "TRACE: raw event")
	})

	t.Run("WarnLevelDropsInfo", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, "warn")

		logger.Info("hidden")
		logger.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("WithAddsAttributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, "info").With("component", "mpv")

		logger.Info("connected")

		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &record))
		assert.Equal(t, "mpv", record["component"])
		assert.Equal(t, "connected", record["msg"])
	})

	t.Run("UnknownLevelDefaultsToInfo", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, "verbose")

		logger.Debug("hidden")
		logger.Info("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestNoDefaultLogger(t *testing.T) {
	SetDefaultLogger(nil)

	// Package level helpers must be safe without a logger
	Debug("nothing")
	Info("nothing")
	Warn("nothing")
	Error("nothing")
	Trace("nothing")
}
