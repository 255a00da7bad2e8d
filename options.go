package tiercache

import (
	"log/slog"

	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/logger"
)

// Option configures Open.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	extractors []logger.ContextExtractor
	cacheOpts  []cache.Option
}

// WithLogger sets the logger shared by the stack.
// Without it a logger is built from Config.Log.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithContextExtractors adds request-scoped attributes to the logger built
// from Config.Log. Ignored when WithLogger is used.
func WithContextExtractors(extractors ...logger.ContextExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// WithCacheOptions appends manager options applied after the configuration,
// such as scheduled warmers or a custom codec.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(o *options) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}
