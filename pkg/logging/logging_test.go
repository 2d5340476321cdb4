package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	t.Setenv(DebugEnv, "")
	assert.Equal(t, slog.LevelInfo, Level(false))
	assert.Equal(t, slog.LevelDebug, Level(true))

	t.Setenv(DebugEnv, "1")
	assert.Equal(t, slog.LevelDebug, Level(false))
}

func TestNew_NonTerminal(t *testing.T) {
	t.Setenv(DebugEnv, "")
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("hidden")
	logger.Info("Loaded highlights", "count", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="Loaded highlights"`)
	assert.Contains(t, out, "count=3")
	assert.False(t, IsTerminal(&buf))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "highlight.log")
	logger, closeFn, err := OpenFile(path, true)
	require.NoError(t, err)
	logger.Debug("Viewer started")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Viewer started")
}

func TestOpenFile_EmptyPathDiscards(t *testing.T) {
	logger, closeFn, err := OpenFile("", false)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closeFn())
}
