// Package logging builds the slog loggers used by the CLI and MCP server.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// levelSilent is above every standard level.
const levelSilent = slog.Level(100)

// New creates a text logger writing records at or above level to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSON creates a JSON logger writing records at or above level to w.
func NewJSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelSilent}))
}

// LevelFromString converts a string to a slog.Level.
// Supports: debug, info, warn, error (case-insensitive).
// Returns slog.LevelWarn for unrecognized strings.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "off", "none", "silent":
		return levelSilent
	default:
		return slog.LevelWarn
	}
}

// LevelFromFlags converts CLI flags to a level: warn by default, debug
// when verbose, nothing at all when quiet.
func LevelFromFlags(verbose, quiet bool) slog.Level {
	switch {
	case quiet:
		return levelSilent
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}
