// Package logging builds the root slog.Logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Options selects the handlers.
type Options struct {
	Level  string
	Format string
	File   string
}

// ParseLevel maps a level name to slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New returns a logger writing to console and, when opts.File is set, to a
// JSON file as well. The returned closer releases the file.
func New(opts Options, console io.Writer) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)
	handlerOpts := &slog.HandlerOptions{Level: level}

	var consoleHandler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		consoleHandler = slog.NewJSONHandler(console, handlerOpts)
	} else {
		consoleHandler = slog.NewTextHandler(console, handlerOpts)
	}

	if opts.File == "" {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	if dir := filepath.Dir(opts.File); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	// The file records at info even when the console is quieter.
	fileLevel := min(level, slog.LevelInfo)
	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: fileLevel})

	return slog.New(slogmulti.Fanout(consoleHandler, fileHandler)), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
