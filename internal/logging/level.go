package logging

import (
	"log/slog"
	"strings"
)

// DefaultLevel is the log level used when not configured.
const DefaultLevel = slog.LevelInfo

// LevelCritical is one step above slog.LevelError. It is used for
// alerts that must stand out in the trail (payment card or SSN hits
// in PII scans).
const LevelCritical = slog.LevelError + 4

// ParseLevel converts a string log level to slog.Level.
// Supported values: DEBUG, INFO, WARNING, ERROR, CRITICAL
// (case-insensitive; "warn" is accepted as an alias).
// Returns (DefaultLevel, false) if the string is not recognized.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	case "CRITICAL":
		return LevelCritical, true
	default:
		return DefaultLevel, false
	}
}

// ParseLevelOrDefault converts a string log level to slog.Level.
// Returns DefaultLevel if the string is not recognized.
func ParseLevelOrDefault(s string) slog.Level {
	level, _ := ParseLevel(s)
	return level
}
