// Package logging manages the process-wide slog logger.
//
// The logger starts in bootstrap mode (text on stderr) so that config
// loading failures are visible, and is upgraded to full mode (stderr
// text + rotating JSON file) once the configuration is available.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager owns the process logger through its bootstrap-to-full
// transition. Callers hold the logger from Logger(); it stays valid
// across Upgrade.
type Manager struct {
	handler *swappableHandler
	logger  *slog.Logger
	sink    *lumberjack.Logger
	level   *slog.LevelVar
	mu      sync.Mutex
}

// NewManager creates a logging manager in bootstrap mode.
// Bootstrap mode writes only to stderr using text format.
// Call Upgrade() after config is available to enable file logging.
func NewManager() *Manager {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	opts := &slog.HandlerOptions{Level: level}
	bootstrap := slog.NewTextHandler(os.Stderr, opts)

	handler := newSwappableHandler(bootstrap)
	logger := slog.New(handler)

	return &Manager{
		handler: handler,
		logger:  logger,
		level:   level,
	}
}

// Logger returns the current logger instance.
// The returned logger is stable across Upgrade calls.
func (m *Manager) Logger() *slog.Logger {
	return m.logger
}

// Upgrade transitions from bootstrap mode (stderr-only) to full mode:
// text to stderr plus JSON records to a size-rotated log file.
func (m *Manager) Upgrade(logFilePath string, level slog.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q; %w", dir, err)
	}

	if m.sink != nil {
		_ = m.sink.Close()
	}
	m.sink = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		Compress:   true,
	}

	m.level.Set(level)

	opts := &slog.HandlerOptions{Level: m.level}
	full := slogmulti.Fanout(
		slog.NewTextHandler(os.Stderr, opts),
		slog.NewJSONHandler(m.sink, opts),
	)

	m.handler.swap(full)

	return nil
}

// SetLevel changes the log level at runtime.
func (m *Manager) SetLevel(level slog.Level) {
	m.level.Set(level)
}

// Close cleanly shuts down the logger, closing the rotated file sink.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sink != nil {
		err := m.sink.Close()
		m.sink = nil
		return err
	}
	return nil
}
