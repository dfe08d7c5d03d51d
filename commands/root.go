package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/region"
	"github.com/penwyp/go-pointer-monitor/internal/data/persistence"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

var (
	// Logging related
	debug   bool
	logFile string

	// Storage related
	dataDir     string
	backend     string
	redisAddr   string
	redisPrefix string

	// Output related
	timezone string

	rootCmd = &cobra.Command{
		Use:   "go-pointer-monitor",
		Short: "Pointer event monitoring, recording and replay tool",
		Long: `go-pointer-monitor streams pointer events through a filtering pipeline,
keeps a bounded history of them, and records sessions that can be replayed
with their original timing.

Examples:
  go-pointer-monitor monitor --input events.jsonl               # Summarise a capture
  go-pointer-monitor monitor --record --roi 100,200,50,50       # Record events inside an ROI from stdin
  go-pointer-monitor recordings list                            # List saved recordings
  go-pointer-monitor replay recording-1700000000000             # Replay a recording
  go-pointer-monitor --backend sqlite recordings info           # Storage usage of the SQLite backend`,
		SilenceUsage: true,
	}
)

const (
	defaultLogFile = "~/.go-pointer-monitor/logs/app.log"
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", defaultLogFile,
		"Log file path")

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", persistence.DefaultDataDir,
		"Directory for persisted recordings and settings")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", persistence.BackendFile,
		"Storage backend (file, sqlite, redis, memory)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", persistence.DefaultRedisAddr,
		"Redis address for the redis backend")
	rootCmd.PersistentFlags().StringVar(&redisPrefix, "redis-prefix", persistence.DefaultRedisPrefix,
		"Key prefix for the redis backend")

	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "Local",
		"Timezone for displayed timestamps (e.g., UTC, Europe/London)")
}

func Execute() error {
	return rootCmd.Execute()
}

// initRuntime sets up logging and the display timezone.
func initRuntime() error {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	path := expandPath(logFile)
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(logLevel, path, debug); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return util.InitializeTimeProvider(timezone)
}

func openStorage() (*persistence.Storage, error) {
	storage, err := persistence.Open(persistence.Config{
		Backend:     backend,
		DataDir:     expandPath(dataDir),
		RedisAddr:   redisAddr,
		RedisPrefix: redisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return storage, nil
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func parseFloats(value string, n int) ([]float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated numbers, got %q", n, value)
	}
	out := make([]float64, n)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", part, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseCorners parses "x1,y1,x2,y2" in any corner order.
func parseCorners(value string) (region.Corners, error) {
	v, err := parseFloats(value, 4)
	if err != nil {
		return region.Corners{}, fmt.Errorf("invalid region: %w", err)
	}
	return region.NewCorners(v[0], v[1], v[2], v[3]), nil
}

// parseRect parses "x,y,width,height".
func parseRect(value string) (region.Rect, error) {
	v, err := parseFloats(value, 4)
	if err != nil {
		return region.Rect{}, fmt.Errorf("invalid roi: %w", err)
	}
	if v[2] < 0 || v[3] < 0 {
		return region.Rect{}, fmt.Errorf("invalid roi: width and height must not be negative")
	}
	return region.NewRect(v[0], v[1], v[2], v[3]), nil
}

// parseTypes parses a comma-separated list of event kinds into an enabled set
// where every other kind is disabled.
func parseTypes(value string) (map[model.EventKind]bool, error) {
	kinds, err := parseKinds(value)
	if err != nil {
		return nil, err
	}
	enabled := make(map[model.EventKind]bool)
	for _, kind := range model.AllEventKinds() {
		enabled[kind] = false
	}
	for _, kind := range kinds {
		enabled[kind] = true
	}
	return enabled, nil
}

// parseKinds parses a comma-separated list of event kinds, skipping blanks
// and duplicates.
func parseKinds(value string) ([]model.EventKind, error) {
	var kinds []model.EventKind
	seen := make(map[model.EventKind]bool)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kind, err := model.ParseEventKind(part)
		if err != nil {
			return nil, err
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}
