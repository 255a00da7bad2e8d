package cache

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/tiercache/pkg/mirror"
)

// Option configures a Manager.
type Option func(*options)

type options struct {
	mirror               mirror.Mirror
	logger               *slog.Logger
	codec                Codec
	now                  func() time.Time
	warmers              []warmerSpec
	defaultTTL           time.Duration
	sweepInterval        time.Duration
	maxBytes             int64
	evictionTarget       float64
	maxEntries           int
	compressionThreshold int
	warmConcurrency      int
	coalesce             bool
	warmOnStart          bool
}

func defaultOptions() *options {
	return &options{
		codec:           JSONCodec{},
		now:             time.Now,
		defaultTTL:      5 * time.Minute,
		sweepInterval:   5 * time.Minute,
		maxEntries:      10000,
		maxBytes:        64 << 20,
		evictionTarget:  0.8,
		warmConcurrency: 4,
	}
}

// WithMirror sets the persistent tier. Without it the manager is memory-only.
func WithMirror(m mirror.Mirror) Option {
	return func(o *options) {
		o.mirror = m
	}
}

// WithLogger sets the logger for evictions, sweeps and mirror failures.
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDefaultTTL sets the TTL used when a call does not pass WithTTL.
// Default: 5 minutes.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = d
	}
}

// WithMaxEntries sets the entry ceiling of the memory tier. Zero means unlimited.
// Default: 10000.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithMaxBytes sets the estimated byte ceiling of the memory tier. Zero means
// unlimited. A single entry larger than the ceiling is still stored.
// Default: 64 MiB.
func WithMaxBytes(n int64) Option {
	return func(o *options) {
		o.maxBytes = n
	}
}

// WithEvictionTarget sets the fraction of each ceiling that eviction reclaims
// down to once a ceiling is exceeded. Must be in (0, 1].
// Default: 0.8.
func WithEvictionTarget(ratio float64) Option {
	return func(o *options) {
		o.evictionTarget = ratio
	}
}

// WithSweepInterval sets how often the sweeper purges expired entries from
// both tiers after Start.
// Default: 5 minutes.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweepInterval = d
	}
}

// WithCodec replaces the JSON value codec.
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression zstd-compresses encoded values of at least minBytes.
// Zero disables compression.
func WithCompression(minBytes int) Option {
	return func(o *options) {
		o.compressionThreshold = minBytes
	}
}

// WithCoalescing makes concurrent Get calls that miss on the same key share a
// single fallback invocation. Off by default: each caller runs its own fallback.
func WithCoalescing() Option {
	return func(o *options) {
		o.coalesce = true
	}
}

// WithWarmConcurrency limits how many producers Warm runs at once.
// Default: 4.
func WithWarmConcurrency(n int) Option {
	return func(o *options) {
		o.warmConcurrency = n
	}
}

// WithWarmSchedule registers producers that Start runs on a five-field cron
// schedule (minute hour day month weekday) until Stop.
func WithWarmSchedule(schedule string, producers map[string]Producer, opts ...EntryOption) Option {
	return func(o *options) {
		o.warmers = append(o.warmers, warmerSpec{
			schedule:  schedule,
			producers: producers,
			opts:      opts,
		})
	}
}

// WithWarmOnStart makes Start run every scheduled warmer once before returning.
func WithWarmOnStart() Option {
	return func(o *options) {
		o.warmOnStart = true
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// EntryOption configures a single Get, Set or Warm call.
type EntryOption func(*entryOptions)

type entryOptions struct {
	tags     []string
	ttl      time.Duration
	ttlSet   bool
	noMirror bool
}

// WithTTL sets the lifetime of the stored entry. It must be positive.
func WithTTL(d time.Duration) EntryOption {
	return func(o *entryOptions) {
		o.ttl = d
		o.ttlSet = true
	}
}

// WithTags labels the stored entry for ClearByTag. Tags replace, never merge
// with, the tags of a previous entry under the same key.
func WithTags(tags ...string) EntryOption {
	return func(o *entryOptions) {
		o.tags = append(o.tags, tags...)
	}
}

// WithoutMirror skips the persistent tier for this call.
// On Get it skips only the mirror read, so a value produced by the fallback
// is still written through. On Set nothing is written to the mirror.
func WithoutMirror() EntryOption {
	return func(o *entryOptions) {
		o.noMirror = true
	}
}
