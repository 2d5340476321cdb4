// Package logging builds the process logger: colored tint output on a
// terminal, plain slog text otherwise.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// DebugEnv turns on debug logging when set to "1"
const DebugEnv = "HIGHLIGHT_DEBUG"

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Level returns the log level for the debug flag and the environment
func Level(debug bool) slog.Level {
	if debug || os.Getenv(DebugEnv) == "1" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// New returns a logger writing to w
func New(w io.Writer, debug bool) *slog.Logger {
	level := Level(debug)
	if IsTerminal(w) {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup installs New(w, debug) as the default logger and returns it
func Setup(w io.Writer, debug bool) *slog.Logger {
	logger := New(w, debug)
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenFile returns a logger appending to the file at path, for programs that
// own the terminal. An empty path discards. The returned close function is
// never nil.
func OpenFile(path string, debug bool) (*slog.Logger, func() error, error) {
	if path == "" {
		return Discard(), func() error { return nil }, nil
	}
	// #nosec G304 - The log path is chosen by the user
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return Discard(), func() error { return nil }, err
	}
	return New(f, debug), f.Close, nil
}
