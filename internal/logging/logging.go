// Package logging builds the slog handlers used by the archive CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Console formats.
const (
	FormatAuto = "auto" // tint, colored only on a terminal
	FormatText = "text" // tint without colors
	FormatJSON = "json"
)

// Options selects the console handler and an optional log file.
type Options struct {
	Level  string
	Format string
	File   string
}

// LookupLevel maps a level name or its numeric value to a slog.Level.
// The empty string is info.
func LookupLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "-4", "debug":
		return slog.LevelDebug, true
	case "", "0", "info":
		return slog.LevelInfo, true
	case "4", "warn", "warning":
		return slog.LevelWarn, true
	case "8", "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// ParseLevel is LookupLevel with unknown values falling back to info.
func ParseLevel(s string) slog.Level {
	level, _ := LookupLevel(s)
	return level
}

// New builds a logger writing to console. When opts.File is set, records are
// also appended to that file as JSON. The returned close func releases the
// file and is safe to call when there is none.
func New(console *os.File, opts Options) (*slog.Logger, func() error, error) {
	level := ParseLevel(opts.Level)
	consoleHandler, err := consoleHandler(console, opts.Format, level, isatty.IsTerminal(console.Fd()))
	if err != nil {
		return nil, nil, err
	}

	if opts.File == "" {
		return slog.New(consoleHandler), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(NewMultiHandler(consoleHandler, fileHandler)), f.Close, nil
}

func consoleHandler(w io.Writer, format string, level slog.Level, terminal bool) (slog.Handler, error) {
	switch strings.ToLower(format) {
	case "", FormatAuto:
		return newTint(w, level, !terminal), nil
	case FormatText:
		return newTint(w, level, true), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want %s, %s or %s)", format, FormatAuto, FormatText, FormatJSON)
	}
}

func newTint(w io.Writer, level slog.Level, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	})
}
