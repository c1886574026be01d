package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"off", levelSilent},
		{"bogus", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromString(tt.in))
		})
	}
}

func TestLevelFromFlags(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LevelFromFlags(false, false))
	assert.Equal(t, slog.LevelDebug, LevelFromFlags(true, false))
	assert.Equal(t, levelSilent, LevelFromFlags(true, true))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("shown", "file", "A.java")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "file=A.java")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	NewJSON(&buf, slog.LevelDebug).Debug("event", "n", 3)
	assert.Contains(t, buf.String(), `"msg":"event"`)
	assert.Contains(t, buf.String(), `"n":3`)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}
