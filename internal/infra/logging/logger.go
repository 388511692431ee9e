// Package logging provides file-based logging for git-pilot.
// It outputs logs to both a global log file (.pilot/logs/pilot.log)
// and task-specific log files (.pilot/logs/task-<id>.log).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/runoshun/git-pilot/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger wraps slog levels with file-based output support.
// Fields are ordered to minimize memory padding.
type Logger struct {
	globalFile *os.File
	taskFiles  map[string]*os.File
	now        func() time.Time
	dataDir    string
	mu         sync.Mutex
	level      slog.Level
}

// New creates a new Logger that writes to the data directory's log folder.
// If dataDir is empty, logging is disabled (returns a no-op logger).
func New(dataDir string, level slog.Level) *Logger {
	return &Logger{
		dataDir:   dataDir,
		level:     level,
		taskFiles: make(map[string]*os.File),
		now:       time.Now,
	}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) openLocked(path string) (*os.File, error) {
	if err := os.MkdirAll(domain.LogsDir(l.dataDir), 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	// Log files are append-only and readable by the owning group
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// write appends entry to the global log and, when taskID is set, to the task log.
func (l *Logger) write(taskID, entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.globalFile == nil {
		f, err := l.openLocked(domain.GlobalLogPath(l.dataDir))
		if err != nil {
			return
		}
		l.globalFile = f
	}
	_, _ = io.WriteString(l.globalFile, entry)

	if taskID == "" {
		return
	}
	tf, ok := l.taskFiles[taskID]
	if !ok {
		f, err := l.openLocked(domain.TaskLogPath(l.dataDir, taskID))
		if err != nil {
			return
		}
		l.taskFiles[taskID] = f
		tf = f
	}
	_, _ = io.WriteString(tf, entry)
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for id, f := range l.taskFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.taskFiles, id)
	}
	return lastErr
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [task-3f2a9c1e-...] [category] message
func formatLog(t time.Time, level slog.Level, taskID, category, msg string) string {
	taskStr := "global"
	if taskID != "" {
		taskStr = "task-" + taskID
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		taskStr,
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l *Logger) log(level slog.Level, taskID, category, msg string) {
	if l.dataDir == "" {
		return // Logging disabled
	}
	if level < l.level {
		return
	}
	if taskID != "" && !domain.ValidTaskID(taskID) {
		taskID = ""
	}
	l.write(taskID, formatLog(l.now(), level, taskID, category, msg))
}

// Info logs an info message.
func (l *Logger) Info(taskID, category, msg string) {
	l.log(slog.LevelInfo, taskID, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(taskID, category, msg string) {
	l.log(slog.LevelDebug, taskID, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(taskID, category, msg string) {
	l.log(slog.LevelWarn, taskID, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(taskID, category, msg string) {
	l.log(slog.LevelError, taskID, category, msg)
}
