package main

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// newLogger builds the process logger. Development gets charm's
// human-readable handler with short timestamps; everything else gets JSON
// so log shippers can parse it.
func newLogger(w io.Writer, dev, verbose bool) *slog.Logger {
	if dev {
		level := charmlog.InfoLevel
		if verbose {
			level = charmlog.DebugLevel
		}
		return slog.New(charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}))
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
