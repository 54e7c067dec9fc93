// Package observability provides the logger and metrics for the analysis
// pipeline. The pipeline is a single-shot batch job, so metrics are written
// as a Prometheus text-format file at the end of the run instead of being
// served over HTTP.
package observability

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a slog logger writing to stderr in the given format
// ("text" or "json") at the given level. Unknown levels fall back to info.
func NewLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
