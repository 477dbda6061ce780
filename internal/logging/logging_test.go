package logging

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", "page", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "page=2")
}

func TestForRun(t *testing.T) {
	var buf bytes.Buffer
	logger := ForRun(New(&buf, "info"), "/tmp/record.pdf")

	logger.Info("started")
	first := buf.String()
	assert.Contains(t, first, "path=/tmp/record.pdf")
	assert.Regexp(t, regexp.MustCompile(`run_id=[0-9a-f-]{36}`), first)

	buf.Reset()
	ForRun(New(&buf, "info"), "/tmp/record.pdf").Info("started")
	id := regexp.MustCompile(`run_id=(\S+)`)
	assert.NotEqual(t, id.FindStringSubmatch(first)[1], id.FindStringSubmatch(buf.String())[1])
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}
