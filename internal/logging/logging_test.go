package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewPicksHandlerByEnv(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "production", "info").Info("scan handled", "risk_score", 78)
	assert.Contains(t, buf.String(), `"risk_score":78`)

	buf.Reset()
	New(&buf, "development", "info").Info("scan handled", "risk_score", 78)
	assert.Contains(t, buf.String(), "risk_score=78")

	buf.Reset()
	New(&buf, "development", "warn").Info("dropped")
	assert.Empty(t, buf.String())
}
