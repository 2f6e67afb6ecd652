package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Writer receives log output. Defaults to os.Stderr.
	Writer io.Writer

	// Verbose sets the level to Debug; otherwise Info.
	Verbose bool

	// JSON selects the JSON handler instead of the text handler.
	JSON bool

	// File, when set, receives a copy of every line through a rotating writer.
	File string
}

// New creates a *slog.Logger with sanitization according to opts.
// The returned close function releases the rotating file, if any, and is
// always safe to call.
func New(opts Options) (*slog.Logger, func() error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	closer := func() error { return nil }
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0750) //nolint:errcheck // lumberjack reports the failure on first write
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
			Compress:   true,
		}
		w = io.MultiWriter(w, rotator)
		closer = rotator.Close
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewSecureHandler(handler)), closer
}

// NewSecureLogger creates a text logger writing to w.
// Verbose enables Debug; otherwise only warnings and errors are logged,
// which keeps one-shot CLI output quiet.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
