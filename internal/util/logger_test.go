package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level string, format LogFormat) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := &Logger{level: ParseLogLevel(level), fields: map[string]interface{}{}}
	logger.AddOutput(NewConsoleOutput(buf, format))
	return logger, buf
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLogLevel(" warning "))
	assert.Equal(t, LevelError, ParseLogLevel("error"))
	assert.Equal(t, LevelInfo, ParseLogLevel("nonsense"))
	assert.Equal(t, "WARN", LevelWarn.String())
}

func TestLoggerFiltersByLevel(t *testing.T) {
	logger, buf := newBufferLogger("warn", FormatText)
	logger.Info("hidden")
	logger.Warn("shown", F("b", 2), F("a", 1))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown a=1 b=2")

	logger.SetLevel(LevelDebug)
	logger.Debugf("count %d", 3)
	assert.Contains(t, buf.String(), "[DEBUG] count 3")
}

func TestLoggerWithAddsFields(t *testing.T) {
	logger, buf := newBufferLogger("info", FormatJSON)
	child := logger.With(F("component", "store"))
	child.Info("evicted", F("count", 5))

	var entry LogEntry
	require.NoError(t, sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "evicted", entry.Message)
	assert.Equal(t, "store", entry.Fields["component"])
	assert.EqualValues(t, 5, entry.Fields["count"])
}

func TestNewLoggerRequiresDestination(t *testing.T) {
	_, err := NewLogger("info", "", false, FormatText)
	assert.Error(t, err)
}

func TestGlobalLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, InitLogger("info", path, false))
	t.Cleanup(func() {
		if previous := SetLogger(nil); previous != nil {
			_ = previous.Close()
		}
	})

	LogInfo("monitor started", F("capacity", 100))
	LogDebug("not written")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[INFO] monitor started capacity=100")
}

func TestNilGlobalLoggerIsSilent(t *testing.T) {
	previous := SetLogger(nil)
	t.Cleanup(func() { SetLogger(previous) })

	assert.NotPanics(t, func() {
		LogWarn("nothing")
		LogErrorf("nothing %d", 1)
	})
}
