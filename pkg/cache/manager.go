package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/tiercache/pkg/logger"
	"github.com/dmitrymomot/tiercache/pkg/mirror"
)

// Fallback produces the value for a key that missed both tiers.
// Returning ErrNoValue reports the key as absent without an error.
type Fallback[V any] func(ctx context.Context) (V, error)

// Manager is a two-tier cache: a bounded in-memory tier with LRU eviction
// and an optional persistent mirror written through on every mutation.
//
// The memory tier is authoritative for reads. Mirror failures are logged and
// counted but never returned to callers. Mirror I/O and fallbacks run without
// holding the memory tier's lock.
//
// A Manager is safe for concurrent use. Start launches the background sweeper
// and scheduled warmers; Stop halts them.
type Manager struct {
	store   *store
	mirror  mirror.Mirror
	codec   *payloadCodec
	logger  *slog.Logger
	now     func() time.Time
	opts    *options
	group   singleflight.Group
	warmers []warmer

	hits         atomic.Uint64
	misses       atomic.Uint64
	sets         atomic.Uint64
	deletes      atomic.Uint64
	mirrorErrors atomic.Uint64

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	cron    *cron.Cron
	cancel  context.CancelFunc
}

// New creates a Manager. It returns ErrInvalidConfig when an option is out
// of range.
//
// Example:
//
//	m, err := cache.New(
//	    cache.WithMirror(mirror.NewRedis(client)),
//	    cache.WithMaxEntries(50000),
//	    cache.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := m.Start(ctx); err != nil {
//	    return err
//	}
//	defer m.Stop(ctx)
func New(opts ...Option) (*Manager, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.NewNope()
	}

	if err := o.validate(); err != nil {
		o.logger.Error("invalid cache configuration", slog.String("error", err.Error()))
		return nil, err
	}

	codec, err := newPayloadCodec(o.codec, o.compressionThreshold)
	if err != nil {
		return nil, err
	}

	warmers, err := parseWarmers(o.warmers)
	if err != nil {
		o.logger.Error("invalid warm schedule", slog.String("error", err.Error()))
		return nil, err
	}

	return &Manager{
		store:   newStore(o.maxEntries, o.maxBytes, o.evictionTarget),
		mirror:  o.mirror,
		codec:   codec,
		logger:  o.logger,
		now:     o.now,
		opts:    o,
		warmers: warmers,
	}, nil
}

func (o *options) validate() error {
	var errs []error
	if o.defaultTTL <= 0 {
		errs = append(errs, fmt.Errorf("default ttl must be positive, got %s", o.defaultTTL))
	}
	if o.maxEntries < 0 {
		errs = append(errs, fmt.Errorf("max entries must not be negative, got %d", o.maxEntries))
	}
	if o.maxBytes < 0 {
		errs = append(errs, fmt.Errorf("max bytes must not be negative, got %d", o.maxBytes))
	}
	if o.evictionTarget <= 0 || o.evictionTarget > 1 {
		errs = append(errs, fmt.Errorf("eviction target must be in (0, 1], got %g", o.evictionTarget))
	}
	if o.sweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sweep interval must be positive, got %s", o.sweepInterval))
	}
	if o.compressionThreshold < 0 {
		errs = append(errs, fmt.Errorf("compression threshold must not be negative, got %d", o.compressionThreshold))
	}
	if o.warmConcurrency < 1 {
		errs = append(errs, fmt.Errorf("warm concurrency must be at least 1, got %d", o.warmConcurrency))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}

// Get returns the value cached under key.
//
// The memory tier is checked first, then the mirror unless WithoutMirror is
// given; a decodable mirror hit repopulates the memory tier. On a miss in both
// tiers fallback, when not nil, produces the value, which is then stored
// through both tiers with opts. WithoutMirror only skips the mirror read here:
// a fallback value is still written through. The boolean result reports
// whether a value is returned.
//
// Errors returned by fallback are passed through unchanged and nothing is
// cached. Cache-internal faults such as undecodable entries degrade to a miss.
func Get[V any](ctx context.Context, m *Manager, key string, fallback Fallback[V], opts ...EntryOption) (V, bool, error) {
	var zero V

	eo, err := m.entryOptions(ctx, key, opts)
	if err != nil {
		return zero, false, err
	}

	if v, ok := lookup[V](ctx, m, key, eo.noMirror); ok {
		m.hits.Add(1)
		return v, true, nil
	}
	m.misses.Add(1)

	if fallback == nil {
		return zero, false, nil
	}
	eo.noMirror = false
	if m.opts.coalesce {
		return populateShared(ctx, m, key, fallback, eo)
	}
	return populate(ctx, m, key, fallback, eo)
}

// Set stores value under key in both tiers, replacing any previous entry.
// It fails only on invalid options or when value cannot be encoded.
func Set[V any](ctx context.Context, m *Manager, key string, value V, opts ...EntryOption) error {
	eo, err := m.entryOptions(ctx, key, opts)
	if err != nil {
		return err
	}
	return m.set(ctx, key, value, eo)
}

func populate[V any](ctx context.Context, m *Manager, key string, fallback Fallback[V], eo entryOptions) (V, bool, error) {
	var zero V

	v, err := fallback(ctx)
	if errors.Is(err, ErrNoValue) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	if err := m.set(ctx, key, v, eo); err != nil {
		m.logger.WarnContext(ctx, "failed to cache fallback value",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return v, true, nil
}

type produced[V any] struct {
	value   V
	payload []byte
}

// populateShared runs fallback once per key across concurrent callers.
// Each caller decodes its own copy of the stored payload.
func populateShared[V any](ctx context.Context, m *Manager, key string, fallback Fallback[V], eo entryOptions) (V, bool, error) {
	var zero V

	res, err, _ := m.group.Do(key, func() (any, error) {
		v, err := fallback(ctx)
		if err != nil {
			return nil, err
		}

		payload, err := m.codec.encode(v)
		if err != nil {
			m.logger.WarnContext(ctx, "failed to cache fallback value",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			return produced[V]{value: v}, nil
		}
		m.put(ctx, key, payload, eo)
		return produced[V]{value: v, payload: payload}, nil
	})
	if errors.Is(err, ErrNoValue) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	p, ok := res.(produced[V])
	if !ok {
		// A concurrent caller asked for the same key with another type.
		return populate(ctx, m, key, fallback, eo)
	}
	if p.payload != nil {
		var v V
		if err := m.codec.decode(p.payload, &v); err == nil {
			return v, true, nil
		}
	}
	return p.value, true, nil
}

// lookup returns the value for key from the memory tier or, failing that,
// from the mirror.
func lookup[V any](ctx context.Context, m *Manager, key string, skipMirror bool) (V, bool) {
	var zero V

	now := m.now()
	payload, ok := m.store.get(key, now)
	if !ok {
		if skipMirror || m.mirror == nil {
			return zero, false
		}
		return fromMirror[V](ctx, m, key, now)
	}

	var v V
	if err := m.codec.decode(payload, &v); err != nil {
		m.decodeFailed(ctx, key, err)
		return zero, false
	}
	return v, true
}

// fromMirror reads key from the mirror and repopulates the memory tier with
// it once it decodes. The fill is dropped when an invalidation ran while the
// mirror was being read, so a deleted entry is never brought back.
func fromMirror[V any](ctx context.Context, m *Manager, key string, now time.Time) (V, bool) {
	var zero V

	gen := m.store.generation()
	rec, err := m.mirror.Get(ctx, key)
	if errors.Is(err, mirror.ErrNotFound) {
		return zero, false
	}
	if err != nil {
		m.mirrorFailed(ctx, "get", key, err)
		return zero, false
	}
	if rec.Key != key || rec.Expired(now) {
		return zero, false
	}

	var v V
	if err := m.codec.decode(rec.Value, &v); err != nil {
		m.decodeFailed(ctx, key, err)
		return zero, false
	}

	e := newEntry(key, rec.Value, slices.Clone(rec.Tags), rec.CreatedAt, rec.ExpiresAt)
	e.accessCount = rec.AccessCount + 1
	e.lastAccessedAt = now
	if res, ok := m.store.fill(e, now, gen); ok {
		m.logSet(ctx, key, e.size, res)
	}
	return v, true
}

func (m *Manager) set(ctx context.Context, key string, value any, eo entryOptions) error {
	payload, err := m.codec.encode(value)
	if err != nil {
		return err
	}
	m.put(ctx, key, payload, eo)
	return nil
}

// put stores an encoded payload in the memory tier and writes it through
// to the mirror.
func (m *Manager) put(ctx context.Context, key string, payload []byte, eo entryOptions) {
	now := m.now()
	e := newEntry(key, payload, eo.tags, now, now.Add(eo.ttl))

	rec := mirror.Record{
		Key:            key,
		Value:          payload,
		Tags:           eo.tags,
		ExpiresAt:      e.expiresAt,
		CreatedAt:      e.createdAt,
		LastAccessedAt: e.lastAccessedAt,
	}

	m.logSet(ctx, key, e.size, m.store.set(e, now))
	m.sets.Add(1)

	if m.mirror == nil || eo.noMirror {
		return
	}
	if err := m.mirror.Set(ctx, rec); err != nil {
		m.mirrorFailed(ctx, "set", key, err)
	}
}

// Delete removes key from both tiers and reports whether the memory tier
// held a live entry for it.
//
// The mirror is cleared before the memory tier so that a concurrent Get
// cannot refill memory from a mirror record that is about to go away.
func (m *Manager) Delete(ctx context.Context, key string) bool {
	if m.mirror != nil {
		if err := m.mirror.Delete(ctx, key); err != nil {
			m.mirrorFailed(ctx, "delete", key, err)
		}
	}

	removed := m.store.delete(key, m.now())
	if removed {
		m.deletes.Add(1)
	}
	return removed
}

// ClearByTag removes every entry tagged with tag from both tiers and returns
// how many entries were removed from the memory tier.
func (m *Manager) ClearByTag(ctx context.Context, tag string) int {
	if m.mirror != nil {
		if _, err := m.mirror.DeleteByTag(ctx, tag); err != nil {
			m.mirrorFailed(ctx, "delete_by_tag", tag, err)
		}
	}

	n := m.store.deleteByTag(tag)
	m.deletes.Add(uint64(n))

	m.logger.DebugContext(ctx, "cleared cache tag",
		slog.String("tag", tag),
		slog.Int("removed", n),
	)
	return n
}

// Clear drops every entry from both tiers. Statistics are kept.
func (m *Manager) Clear(ctx context.Context) {
	if m.mirror != nil {
		if err := m.mirror.Clear(ctx); err != nil {
			m.mirrorFailed(ctx, "clear", "", err)
		}
	}

	n := m.store.clear()
	m.deletes.Add(uint64(n))

	m.logger.InfoContext(ctx, "cache cleared", slog.Int("removed", n))
}

// Entries returns metadata of the memory tier's entries, most recently
// accessed first.
func (m *Manager) Entries() []Entry {
	return m.store.entries()
}

// Healthcheck returns a check that pings the mirror when it supports it.
func (m *Manager) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		p, ok := m.mirror.(mirror.Pinger)
		if !ok {
			return nil
		}
		return p.Ping(ctx)
	}
}

func (m *Manager) entryOptions(ctx context.Context, key string, opts []EntryOption) (entryOptions, error) {
	if key == "" {
		return entryOptions{}, ErrEmptyKey
	}

	var eo entryOptions
	for _, opt := range opts {
		opt(&eo)
	}

	if eo.ttlSet && eo.ttl <= 0 {
		m.logger.WarnContext(ctx, "rejected non-positive ttl",
			slog.String("key", key),
			slog.Duration("ttl", eo.ttl),
		)
		return entryOptions{}, fmt.Errorf("%w: %s", ErrInvalidTTL, eo.ttl)
	}
	if !eo.ttlSet {
		eo.ttl = m.opts.defaultTTL
	}

	eo.tags = normalizeTags(eo.tags)
	return eo, nil
}

// normalizeTags drops empty and duplicate tags, keeping first-seen order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (m *Manager) mirrorFailed(ctx context.Context, op, key string, err error) {
	m.mirrorErrors.Add(1)
	m.logger.WarnContext(ctx, "cache mirror operation failed",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

func (m *Manager) decodeFailed(ctx context.Context, key string, err error) {
	m.logger.WarnContext(ctx, "failed to decode cached value",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

func (m *Manager) logSet(ctx context.Context, key string, size int64, res setResult) {
	for _, e := range res.evicted {
		m.logger.DebugContext(ctx, "cache entry evicted",
			slog.String("key", e.Key),
			slog.Time("last_accessed_at", e.LastAccessedAt),
			slog.Int64("access_count", e.AccessCount),
		)
	}
	if res.oversize {
		m.logger.WarnContext(ctx, "cache entry exceeds memory byte ceiling",
			slog.String("key", key),
			slog.String("size", humanize.IBytes(uint64(size))),
			slog.String("max", humanize.IBytes(uint64(m.opts.maxBytes))),
		)
	}
}
