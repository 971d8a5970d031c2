// Package orchestrator coordinates task routing, dispatch, parallel
// execution, and agent-to-agent messaging.
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is the observability sink the orchestrator components write to.
// It is passed explicitly so the core stays testable without capturing
// global output.
type Logger interface {
	Logf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NopLogger discards everything. Used in tests and when logging is disabled.
type NopLogger struct{}

// Logf discards the message.
func (NopLogger) Logf(string, ...interface{}) {}

// Warnf discards the message.
func (NopLogger) Warnf(string, ...interface{}) {}

// Errorf discards the message.
func (NopLogger) Errorf(string, ...interface{}) {}

// FileLogger writes timestamped, levelled lines to a log file.
type FileLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileLogger creates a logger writing to the specified path.
// Creates parent directories if they don't exist.
func NewFileLogger(logPath string) (*FileLogger, error) {
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := &FileLogger{file: f}
	logger.Logf("=== Forge orchestrator log started at %s ===", time.Now().Format(time.RFC3339))

	return logger, nil
}

// Logf writes an info-level line.
func (l *FileLogger) Logf(format string, args ...interface{}) {
	l.write("INFO", format, args...)
}

// Warnf writes a warning-level line.
func (l *FileLogger) Warnf(format string, args ...interface{}) {
	l.write("WARN", format, args...)
}

// Errorf writes an error-level line.
func (l *FileLogger) Errorf(format string, args ...interface{}) {
	l.write("ERROR", format, args...)
}

func (l *FileLogger) write(level, format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] %s %s\n", timestamp, level, msg)
}

// Close closes the log file. Safe to call on a logger without a file.
func (l *FileLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}
