package adapter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLogFile is the log file name used when only a directory is configured
const DefaultLogFile = "foodpin.log"

// SetupLogger opens the TUI's JSON log file. An empty File logs to the
// data directory, and a File naming a directory gets DefaultLogFile in it.
// Every entry carries the process id so runs sharing the file can be told apart.
func SetupLogger(cfg *LoggingConfig) (*slog.Logger, error) {
	logPath, err := resolveLogPath(cfg.File)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	})
	return slog.New(handler).With("pid", os.Getpid()), nil
}

func resolveLogPath(file string) (string, error) {
	if file == "" {
		return filepath.Join(defaultDataPath(), DefaultLogFile), nil
	}
	if strings.HasPrefix(file, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		file = filepath.Join(home, file[1:])
	}
	if strings.HasSuffix(file, string(filepath.Separator)) {
		return filepath.Join(file, DefaultLogFile), nil
	}
	if info, err := os.Stat(file); err == nil && info.IsDir() {
		return filepath.Join(file, DefaultLogFile), nil
	}
	return file, nil
}

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewConsoleLogger returns a text logger for the server and admin tools,
// which own their terminal unlike the TUI
func NewConsoleLogger(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

// NullLogger returns a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
