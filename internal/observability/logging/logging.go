// Package logging builds the JSON loggers both binaries install as the slog
// default. Every line carries the service name so api and worker output can
// be tailed from one stream.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	// Level accepts debug, info, warn or error; anything else means info.
	Level string
	// AddSource emits file:line on every record. Costly, worker-only in
	// practice.
	AddSource bool
	// Output defaults to stdout.
	Output io.Writer
}

func New(service string, opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
	})
	return slog.New(handler).With("service", service)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
