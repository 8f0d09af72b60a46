package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", "json")

	l.Info("entry saved", "entry_id", "abc")
	l.Debug("dropped")

	assert.Contains(t, buf.String(), `"msg":"entry saved"`)
	assert.Contains(t, buf.String(), `"entry_id":"abc"`)
	assert.NotContains(t, buf.String(), "dropped")
}
