package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriterJSONOutsideLocal(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	l := InitWriter("prod", &buf)
	l.Debug("hidden")
	l.Info("visible", "user_id", "alice")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "visible", line["msg"])
	assert.Equal(t, "alice", line["user_id"])
}

func TestInitWriterDebugInLocal(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	InitWriter("local", &buf)
	slog.Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}
