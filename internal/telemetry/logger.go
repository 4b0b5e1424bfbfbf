package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Logger provides structured logging backed by log/slog.
// Output goes to stderr; stdout is reserved for the MCP protocol stream.
type Logger struct {
	inner   *slog.Logger
	level   slog.Level
	mu      sync.Mutex
	writers []io.Writer
}

// NewLogger creates a new structured logger at the named level
// (debug, info, warn, error). Unknown names fall back to info.
func NewLogger(level string) *Logger {
	return newLogger(os.Stderr, ParseLevel(level))
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return newLogger(io.Discard, slog.LevelError)
}

func newLogger(output io.Writer, level slog.Level) *Logger {
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})
	return &Logger{
		inner:   slog.New(handler),
		level:   level,
		writers: []io.Writer{output},
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsLevel reports whether name is a level ParseLevel understands.
func IsLevel(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// WithFile adds file output to the logger.
func (l *Logger) WithFile(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.writers = append(l.writers, file)

	multi := io.MultiWriter(l.writers...)
	handler := slog.NewTextHandler(multi, &slog.HandlerOptions{Level: l.level})
	l.inner = slog.New(handler)

	return nil
}

// WithFields returns a new logger with additional key-value fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	writersCopy := make([]io.Writer, len(l.writers))
	copy(writersCopy, l.writers)

	return &Logger{
		inner:   l.inner.With(args...),
		level:   l.level,
		writers: writersCopy,
	}
}

// Close closes all file writers opened via WithFile.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, w := range l.writers {
		if f, ok := w.(*os.File); ok && f != os.Stderr && f != os.Stdout {
			if err := f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Slog returns the underlying *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.inner
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.inner.Debug(msg, keyvals...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.inner.Info(msg, keyvals...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.inner.Warn(msg, keyvals...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.inner.Error(msg, keyvals...)
}
