package util

import (
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger LoggerInterface
)

// InitLogger installs the global logger. A second call replaces the first
// logger and closes it.
func InitLogger(logLevel, logFile string, debugToConsole bool) error {
	logger, err := NewLogger(logLevel, logFile, debugToConsole, FormatText)
	if err != nil {
		return err
	}
	previous := SetLogger(logger)
	if previous != nil {
		_ = previous.Close()
	}
	return nil
}

// SetLogger swaps the global logger and returns the previous one. Passing nil
// silences logging.
func SetLogger(logger LoggerInterface) LoggerInterface {
	globalMu.Lock()
	defer globalMu.Unlock()
	previous := globalLogger
	globalLogger = logger
	return previous
}

// GetLogger returns the global logger, or nil when logging is not initialised.
func GetLogger() LoggerInterface {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

func LogInfo(msg string, fields ...Field) {
	if logger := GetLogger(); logger != nil {
		logger.Info(msg, fields...)
	}
}

func LogInfof(format string, args ...interface{}) {
	if logger := GetLogger(); logger != nil {
		logger.Infof(format, args...)
	}
}

func LogDebug(msg string, fields ...Field) {
	if logger := GetLogger(); logger != nil {
		logger.Debug(msg, fields...)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if logger := GetLogger(); logger != nil {
		logger.Debugf(format, args...)
	}
}

func LogWarn(msg string, fields ...Field) {
	if logger := GetLogger(); logger != nil {
		logger.Warn(msg, fields...)
	}
}

func LogWarnf(format string, args ...interface{}) {
	if logger := GetLogger(); logger != nil {
		logger.Warnf(format, args...)
	}
}

func LogError(msg string, fields ...Field) {
	if logger := GetLogger(); logger != nil {
		logger.Error(msg, fields...)
	}
}

func LogErrorf(format string, args ...interface{}) {
	if logger := GetLogger(); logger != nil {
		logger.Errorf(format, args...)
	}
}
