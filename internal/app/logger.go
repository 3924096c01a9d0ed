package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production deployments set
// LOG_FORMAT=json for machine-parseable output; the default text handler
// is meant for local development.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("app", "meridian"))
}
