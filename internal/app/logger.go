package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a configured slog.Logger carrying the deployment
// environment as a base attribute. It is also installed as the process
// default so code paths without an injected logger still emit through
// the same handler.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	if cfg != nil {
		logger = logger.With(slog.String("env", cfg.AppEnv))
	}
	slog.SetDefault(logger)
	return logger
}
