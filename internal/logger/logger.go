// Package logger is a thin severity-tagged logging facade used by every
// component. Front ends can register a callback to mirror the status log.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Level mirrors the severities shown in the status log.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// StatusFunc receives every emitted line, for front ends that render their
// own running log.
type StatusFunc func(message string, level Level)

var (
	mu       sync.Mutex
	log      = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	callback StatusFunc
	fileSink io.Closer
)

// Setup points the logger at stderr with console colors, and optionally
// mirrors everything into a log file (the enable_logging setting).
func Setup(logFile string) error {
	mu.Lock()
	defer mu.Unlock()

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		fileSink = f
		writers = append(writers, f)
	}
	log = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return nil
}

// SetCallback registers a mirror for the status log; pass nil to clear it.
func SetCallback(fn StatusFunc) {
	mu.Lock()
	defer mu.Unlock()
	callback = fn
}

// Close releases the file sink, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if fileSink != nil {
		fileSink.Close()
		fileSink = nil
	}
}

func emit(level Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	mu.Lock()
	l := log
	cb := callback
	mu.Unlock()

	switch level {
	case LevelDebug:
		l.Debug().Msg(msg)
	case LevelWarning:
		l.Warn().Msg(msg)
	case LevelError:
		l.Error().Msg(msg)
	default:
		l.Info().Msg(msg)
	}

	if cb != nil {
		cb(msg, level)
	}
}

// Debug prints only if verbose mode is enabled
func Debug(format string, args ...interface{}) {
	if !viper.GetBool("verbose") {
		return
	}
	emit(LevelDebug, format, args...)
}

// Info always prints
func Info(format string, args ...interface{}) {
	emit(LevelInfo, format, args...)
}

// Success prints with a check mark so it stands out in the status log
func Success(format string, args ...interface{}) {
	emit(LevelSuccess, "✓ "+format, args...)
}

// Warn always prints with a warning icon
func Warn(format string, args ...interface{}) {
	emit(LevelWarning, "⚠️  "+format, args...)
}

// Error always prints
func Error(format string, args ...interface{}) {
	emit(LevelError, "❌ "+format, args...)
}
