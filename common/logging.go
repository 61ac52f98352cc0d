package common

import (
	"io"
	"log/slog"
	"os"
)

// LoggingOpts controls how SetupLogger builds the process logger.
type LoggingOpts struct {
	// Debug enables debug level messages.
	Debug bool

	// JSON switches the output from logfmt-style text to JSON lines.
	JSON bool

	// Service is attached to every record as the "service" attribute.
	Service string

	// Version is attached to every record as the "version" attribute.
	Version string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// SetupLogger returns a structured logger configured from opts.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Version != "" {
		logger = logger.With("version", opts.Version)
	}
	return logger
}
