package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})
	logger.Info("connected", "topic", "room:lobby")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"topic":"room:lobby"`)

	buf.Reset()
	logger = New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})
	logger.Info("connected")
	assert.Contains(t, buf.String(), "msg=connected")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})
	logger.Info("dropped")
	assert.Empty(t, buf.String())
	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat("bogus"))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("discarded")
	})
}
