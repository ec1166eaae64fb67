// Package log provides structured logging for the feed oracle. It wraps
// go-ethereum's slog-based logger with per-module child loggers and a
// process-wide default that also receives go-ethereum's own log output.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	gethlog "github.com/ethereum/go-ethereum/log"
)

// Supported output formats.
const (
	FormatTerminal = "terminal"
	FormatLogfmt   = "logfmt"
	FormatJSON     = "json"
)

// Logger wraps a go-ethereum logger with oracle conveniences.
type Logger struct {
	inner gethlog.Logger
}

// defaultLogger is the process-wide logger used by the package-level
// convenience functions.
var defaultLogger *Logger

func init() {
	defaultLogger = NewWithHandler(gethlog.NewTerminalHandlerWithLevel(os.Stderr, slog.LevelInfo, false))
}

// New creates a Logger writing to w at the given level in one of the
// supported formats.
func New(w io.Writer, level slog.Level, format string) (*Logger, error) {
	var h slog.Handler
	switch strings.ToLower(format) {
	case "", FormatTerminal:
		h = gethlog.NewTerminalHandlerWithLevel(w, level, false)
	case FormatLogfmt:
		h = gethlog.LogfmtHandlerWithLevel(w, level)
	case FormatJSON:
		h = gethlog.JSONHandlerWithLevel(w, level)
	default:
		return nil, fmt.Errorf("log: unknown format %q", format)
	}
	return NewWithHandler(h), nil
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: gethlog.NewLogger(h)}
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return gethlog.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "crit":
		return gethlog.LevelCrit, nil
	}
	return slog.LevelInfo, fmt.Errorf("log: unknown level %q", s)
}

// SetDefault replaces the package-level default logger and routes
// go-ethereum's root logger through it.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
		gethlog.SetDefault(l.inner)
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Module returns a child logger with an additional "module" attribute.
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With("module", name)}
}

// With returns a child logger with additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Handler returns the underlying slog handler.
func (l *Logger) Handler() slog.Handler { return l.inner.Handler() }

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// Debug logs at LevelDebug using the default logger.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

// Info logs at LevelInfo using the default logger.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs at LevelWarn using the default logger.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs at LevelError using the default logger.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
