package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cryguy/webview/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "test"}, zapcore.AddSync(&buf))
	log.Debug("hello")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"logger":"test"`)
	assert.Contains(t, out, `"level":"DEBUG"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.LoggerConfig{Level: "warn", Format: "console"}, zapcore.AddSync(&buf))
	log.Info("quiet")
	log.Warn("loud")
	require.NoError(t, log.Sync())
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.LoggerConfig{Level: "chatty", Format: "json"}, zapcore.AddSync(&buf))
	log.Debug("hidden")
	log.Info("shown")
	require.NoError(t, log.Sync())
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wv.log")
	var buf bytes.Buffer
	log := NewLogger(config.LoggerConfig{Level: "info", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&buf))
	log.Info("to file")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}
