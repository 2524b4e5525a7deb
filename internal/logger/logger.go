// Package logger provides levelled, printf-style logging for the o365 CLI.
//
// Output goes to stderr through a log/slog text handler so that stdout stays
// free for command output and the MCP stdio transport. Debug messages are
// dropped unless verbose mode is enabled.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	level   = new(slog.LevelVar)
	out     io.Writer = os.Stderr
	handler slog.Handler
	base    *slog.Logger
)

func init() {
	level.Set(slog.LevelWarn)
	rebuild()
}

// rebuild recreates the slog logger. Callers hold mu or run during init.
func rebuild() {
	handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	base = slog.New(handler)
}

// SetVerbose switches debug output on or off.
func SetVerbose(v bool) {
	if v {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(slog.LevelWarn)
}

// IsVerbose reports whether debug output is enabled.
func IsVerbose() bool {
	return level.Level() <= slog.LevelDebug
}

// SetLevel sets the minimum level directly.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput redirects log output. Passing nil restores stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
	rebuild()
}

// Slog returns the underlying structured logger.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug logs a debug message.
func Debug(format string, args ...any) {
	log(slog.LevelDebug, format, args...)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	log(slog.LevelInfo, format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	log(slog.LevelWarn, format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	log(slog.LevelError, format, args...)
}

func log(l slog.Level, format string, args ...any) {
	ctx := context.Background()
	lg := Slog()
	if !lg.Enabled(ctx, l) {
		return
	}
	lg.Log(ctx, l, fmt.Sprintf(format, args...))
}
