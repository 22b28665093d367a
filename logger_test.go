package rocketbot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdLogger(t *testing.T) {
	t.Run("respects the level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStdLogger(&buf, LogLevelWarn)

		logger.Debug("debug msg", nil)
		logger.Info("info msg", nil)
		logger.Warn("warn msg", nil)
		logger.Error("error msg", nil)

		out := buf.String()
		assert.NotContains(t, out, "debug msg")
		assert.NotContains(t, out, "info msg")
		assert.Contains(t, out, "warn msg")
		assert.Contains(t, out, "error msg")
	})

	t.Run("includes fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStdLogger(&buf, LogLevelInfo)

		logger.Info("session live", LogFields{LogFieldUser: "bot"})

		assert.Contains(t, buf.String(), "user:bot")
	})

	t.Run("with fields carries context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStdLogger(&buf, LogLevelInfo)

		child := logger.WithFields(LogFields{LogFieldServerURI: "ws://host"})
		child.Info("connected", LogFields{LogFieldUser: "bot"})

		out := buf.String()
		assert.Contains(t, out, "server_uri:ws://host")
		assert.Contains(t, out, "user:bot")

		// The parent is unaffected.
		buf.Reset()
		logger.Info("plain", nil)
		assert.NotContains(t, buf.String(), "server_uri")
	})

	t.Run("set level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStdLogger(&buf, LogLevelError)

		logger.Info("hidden", nil)
		logger.SetLevel(LogLevelDebug)
		logger.Info("shown", nil)

		assert.Equal(t, LogLevelDebug, logger.Level())
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("nil writer defaults to stderr", func(t *testing.T) {
		logger := NewStdLogger(nil, LogLevelNone)
		logger.Error("never printed", nil)
	})
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()

	logger.Debug("x", nil)
	logger.Info("x", LogFields{"k": "v"})
	logger.Warn("x", nil)
	logger.Error("x", nil)

	assert.Same(t, Logger(logger), logger.WithFields(LogFields{"k": "v"}))
	assert.Equal(t, LogLevelNone, logger.Level())
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevelNone, "NONE"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestLogLevelOrdering(t *testing.T) {
	levels := []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelNone}
	for i := 1; i < len(levels); i++ {
		assert.True(t, levels[i-1] < levels[i],
			strings.Join([]string{levels[i-1].String(), levels[i].String()}, " < "))
	}
}
