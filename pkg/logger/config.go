package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Config controls the logger built by New.
type Config struct {
	// Output receives log lines. Nil means os.Stdout.
	Output io.Writer `env:"-" yaml:"-"`

	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string `env:"LOG_LEVEL" envDefault:"info" yaml:"level"`

	// Format is json or text.
	Format string `env:"LOG_FORMAT" envDefault:"json" yaml:"format"`

	// Component is attached to every record as the "component" attribute.
	Component string `env:"LOG_COMPONENT" envDefault:"tiercache" yaml:"component"`

	Sentry SentryConfig `yaml:"sentry"`
}

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN" yaml:"dsn"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production" yaml:"environment"`
	// MinLevel is warn or error: the lowest level forwarded to Sentry as a log.
	MinLevel string `env:"SENTRY_MIN_LEVEL" envDefault:"warn" yaml:"min_level"`
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
