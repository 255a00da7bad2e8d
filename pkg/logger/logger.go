package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// New creates a logger from cfg with optional context extractors.
// When cfg.Sentry.DSN is set, warnings and errors are also sent to Sentry;
// if Sentry cannot be initialized the logger falls back to local output only.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var local slog.Handler
	if cfg.Format == "text" {
		local = slog.NewTextHandler(out, handlerOpts)
	} else {
		local = slog.NewJSONHandler(out, handlerOpts)
	}

	handler := local
	if cfg.Sentry.DSN != "" {
		if sh, err := sentryHandler(cfg.Sentry); err != nil {
			slog.New(local).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		} else {
			handler = newMultiHandler(local, sh)
		}
	}

	log := slog.New(NewLogHandlerDecorator(handler, extractors...))
	if cfg.Component != "" {
		log = log.With(slog.String("component", cfg.Component))
	}
	return log
}

// sentryHandler initializes the Sentry SDK and returns a handler that turns
// errors into issues and keeps warnings as searchable logs.
func sentryHandler(cfg SentryConfig) (slog.Handler, error) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		EnableLogs:  true,
	}); err != nil {
		return nil, err
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if ParseLevel(cfg.MinLevel) == slog.LevelError {
		logLevel = []slog.Level{slog.LevelError}
	}

	return sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background()), nil
}
