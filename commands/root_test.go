package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/region"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// executeCommand runs the root command with args against a temporary data
// directory and log file, and returns everything written to stdout.
func executeCommand(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected func(string) string
	}{
		{
			name:  "home directory expansion",
			input: "~/test/path",
			expected: func(home string) string {
				return filepath.Join(home, "test/path")
			},
		},
		{
			name:  "absolute path unchanged",
			input: "/absolute/path",
			expected: func(home string) string {
				return "/absolute/path"
			},
		},
		{
			name:  "relative path converted to absolute",
			input: "relative/path",
			expected: func(home string) string {
				abs, _ := filepath.Abs("relative/path")
				return abs
			},
		},
	}

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected(home), expandPath(tt.input))
		})
	}
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "test", "nested", "dir")

	require.NoError(t, ensureDir(testDir))
	info, err := os.Stat(testDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, ensureDir(testDir))
}

func TestParseCorners(t *testing.T) {
	corners, err := parseCorners("150, 250,100,200")
	require.NoError(t, err)
	assert.Equal(t, region.Corners{X1: 100, Y1: 200, X2: 150, Y2: 250}, corners)

	_, err = parseCorners("1,2,3")
	assert.Error(t, err)
	_, err = parseCorners("1,2,3,x")
	assert.Error(t, err)
}

func TestParseRect(t *testing.T) {
	r, err := parseRect("100,200,50,50")
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: 100, Y: 200, Width: 50, Height: 50}, r)

	_, err = parseRect("0,0,-1,5")
	assert.Error(t, err)
}

func TestParseTypes(t *testing.T) {
	enabled, err := parseTypes("click, pointerdown,")
	require.NoError(t, err)
	assert.Len(t, enabled, len(model.AllEventKinds()))
	assert.True(t, enabled[model.Click])
	assert.True(t, enabled[model.PointerDown])
	assert.False(t, enabled[model.PointerMove])

	_, err = parseTypes("click,keydown")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnknownEventKind)
}

func TestFormatEventLine(t *testing.T) {
	require.NoError(t, util.InitializeTimeProvider("UTC"))

	line := formatEventLine(model.NormalizedEvent{
		Type: model.PointerDown, PointerID: 3, X: model.Float(10), Y: model.Float(20.5), Timestamp: 1500,
	})
	assert.Equal(t, "00:00:01.500 pointerdown  #3 (10, 20.5)", line)

	line = formatEventLine(model.NormalizedEvent{Type: model.Click, PointerID: 1})
	assert.Contains(t, line, "(-, -)")
}

func TestUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, nil,
		"--data-dir", dir, "--log-file", filepath.Join(dir, "app.log"),
		"--backend", "postgres", "recordings", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestInvalidTimezone(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, nil,
		"--data-dir", dir, "--log-file", filepath.Join(dir, "app.log"),
		"--timezone", "Mars/Olympus", "recordings", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone")
}
