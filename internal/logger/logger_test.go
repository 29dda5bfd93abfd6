package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevels(t *testing.T) {
	for level, expected := range map[Level]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"":         zapcore.InfoLevel,
		"loud":     zapcore.InfoLevel,
	} {
		assert.Equal(t, expected, level.zap(), string(level))
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: WarnLevel, Console: &buf})
	require.NoError(t, err)

	log.Info("ignored")
	log.Warn("asset missing from archive", zap.String("filename", "song.mp3"))
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "asset missing from archive", entry["msg"])
	assert.Equal(t, "song.mp3", entry["filename"])
	assert.Contains(t, entry, "timestamp")
	assert.Contains(t, entry, "caller")
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ryth.log")
	log, err := New(Config{Level: DebugLevel, OutputPath: path, MaxSize: 1})
	require.NoError(t, err)

	log.Debug("parsed chart", zap.Int("notes", 6))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"parsed chart"`)
	assert.Contains(t, string(data), `"notes":6`)
}

func TestNop(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}
