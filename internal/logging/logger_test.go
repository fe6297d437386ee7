package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("trace")
	assert.True(t, ok)
	assert.Equal(t, LevelTrace, lvl)

	lvl, ok = ParseLevel("WARNING")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, ok = ParseLevel("loud")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestTraceRecordsAreLabelled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelTrace, "text")

	Trace(logger, "probe registration", "module", "storage")

	out := buf.String()
	assert.Contains(t, out, "level=TRACE")
	assert.Contains(t, out, "module=storage")
}

func TestErrorKeyIsStandardized(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	logger.Error("boom", "error", "bad")

	assert.Contains(t, buf.String(), `"err":"bad"`)
}

func TestTraceIsFilteredAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelDebug, "text")

	Trace(logger, "hidden")

	assert.Empty(t, buf.String())
}
