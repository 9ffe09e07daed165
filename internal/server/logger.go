package server

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger. level is one of debug, info, warn,
// error (default info); format "json" selects the JSON handler, anything
// else the text handler. A nil writer logs to stdout.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
