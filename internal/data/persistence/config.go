package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"

	DefaultDataDir     = "~/.go-pointer-monitor"
	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisPrefix = "go-pointer-monitor:"
	sqliteFileName     = "pointer-events.db"
)

// Config selects and configures a backend.
type Config struct {
	Backend     string
	DataDir     string
	RedisAddr   string
	RedisPrefix string
	MaxSize     int
}

// Validate fills defaults and rejects unknown backends.
func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	c.Backend = strings.ToLower(c.Backend)
	switch c.Backend {
	case BackendFile, BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (want file, sqlite, redis or memory)", c.Backend)
	}

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	c.DataDir = expandHome(c.DataDir)

	if c.RedisAddr == "" {
		c.RedisAddr = DefaultRedisAddr
	}
	if c.RedisPrefix == "" {
		c.RedisPrefix = DefaultRedisPrefix
	}
	if c.MaxSize == 0 {
		c.MaxSize = model.DefaultStorageMaxSize
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Open validates cfg and returns a Storage over the selected backend.
func Open(cfg Config) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var backend Backend
	switch cfg.Backend {
	case BackendMemory:
		backend = NewMemoryBackend()
	case BackendFile:
		fb, err := NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		if err := fb.Preload(); err != nil {
			util.LogWarn(fmt.Sprintf("Storage preload failed: %v", err))
		}
		backend = fb
	case BackendSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		sb, err := NewSQLiteBackend(filepath.Join(cfg.DataDir, sqliteFileName))
		if err != nil {
			return nil, err
		}
		backend = sb
	case BackendRedis:
		rb, err := NewRedisBackend(cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		backend = rb
	}

	util.LogDebug(fmt.Sprintf("Storage opened: backend=%s dir=%s", cfg.Backend, cfg.DataDir))
	return NewStorage(backend, cfg.MaxSize), nil
}
