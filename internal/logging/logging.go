// Package logging builds the slog loggers the binaries share. The engine
// logs to a file because its stdout carries the RPC stream; the store and
// mirror own their stderr and log there directly.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// FileLogger bundles the engine logger with the handle needed to close it.
// When debug logging is off, Logger discards everything and no file is open.
type FileLogger struct {
	Logger  *slog.Logger
	Close   func() error
	Path    string
	Enabled bool
}

func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Stderr returns a text logger for binaries that own their stderr.
func Stderr(debug bool) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level(debug)}))
}

// NewFileLogger opens <dataDir>/logs/engine.log for append and returns a
// JSON logger with source locations. Outside debug mode nothing is written
// and nothing is opened.
func NewFileLogger(dataDir string, debug bool) (FileLogger, error) {
	if !debug {
		return offFileLogger(), nil
	}
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return offFileLogger(), err
	}
	path := filepath.Join(logDir, "engine.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return offFileLogger(), err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	return FileLogger{Logger: slog.New(handler), Close: file.Close, Path: path, Enabled: true}, nil
}

func offFileLogger() FileLogger {
	return FileLogger{Logger: Nop(), Close: func() error { return nil }}
}

func level(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
