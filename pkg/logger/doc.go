// Package logger builds the structured loggers used by the cache and its mirrors.
//
// It extends log/slog with context extractors and optional Sentry reporting.
//
// # Basic Usage
//
//	log := logger.New(logger.Config{Level: "debug", Format: "text"})
//	m, err := cache.New(cache.WithLogger(log))
//
// Every record carries a "component" attribute (default "tiercache") so
// cache logs are easy to filter in a shared stream.
//
// # Context Extractors
//
// A [ContextExtractor] pulls an attribute from the context on every log call.
// [ContextValue] covers the common case of a string stored under a key:
//
//	log := logger.New(cfg, logger.ContextValue(requestIDKey{}, "request_id"))
//
// Mirror failures are logged with the caller's context, so a request ID
// extractor ties a degraded read to the request that observed it.
//
// # Sentry Integration
//
// Set [SentryConfig.DSN] (SENTRY_DSN) to forward warnings and errors to Sentry.
// Errors create issues; warnings are stored as logs. If the DSN is empty or
// Sentry fails to initialize, logging continues locally.
//
// # Configuration
//
//	LOG_LEVEL          - debug, info, warn, error (default: info)
//	LOG_FORMAT         - json or text (default: json)
//	LOG_COMPONENT      - value of the component attribute (default: tiercache)
//	SENTRY_DSN         - Sentry DSN; empty disables Sentry
//	SENTRY_ENVIRONMENT - Sentry environment (default: production)
//	SENTRY_MIN_LEVEL   - warn or error (default: warn)
package logger
