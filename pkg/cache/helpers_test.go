package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/mirror"
)

type clock struct {
	now time.Time
	mu  sync.Mutex
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memMirror is an in-memory mirror.Mirror for tests.
type memMirror struct {
	records map[string]mirror.Record
	now     func() time.Time
	sweeps  int
	mu      sync.Mutex
}

func newMemMirror(now func() time.Time) *memMirror {
	return &memMirror{records: make(map[string]mirror.Record), now: now}
}

func (m *memMirror) Get(_ context.Context, key string) (mirror.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return mirror.Record{}, mirror.ErrNotFound
	}
	return rec, nil
}

func (m *memMirror) Set(_ context.Context, rec mirror.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Key] = rec
	return nil
}

func (m *memMirror) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *memMirror) DeleteByTag(_ context.Context, tag string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, rec := range m.records {
		if rec.HasTag(tag) {
			delete(m.records, key)
			n++
		}
	}
	return n, nil
}

func (m *memMirror) DeleteExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	n := 0
	for key, rec := range m.records {
		if rec.Expired(m.now()) {
			delete(m.records, key)
			n++
		}
	}
	return n, nil
}

func (m *memMirror) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]mirror.Record)
	return nil
}

func (m *memMirror) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[key]
	return ok
}

func (m *memMirror) put(rec mirror.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Key] = rec
}

func (m *memMirror) sweepCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweeps
}

// gatedMirror pauses the first Get after it has read the record, until
// release is closed.
type gatedMirror struct {
	*memMirror
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedMirror(inner *memMirror) *gatedMirror {
	return &gatedMirror{
		memMirror: inner,
		read:      make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (g *gatedMirror) Get(ctx context.Context, key string) (mirror.Record, error) {
	rec, err := g.memMirror.Get(ctx, key)
	g.once.Do(func() {
		close(g.read)
		<-g.release
	})
	return rec, err
}

var errMirrorDown = errors.New("mirror down")

// brokenMirror fails every operation.
type brokenMirror struct{}

func (brokenMirror) Get(context.Context, string) (mirror.Record, error) {
	return mirror.Record{}, errMirrorDown
}
func (brokenMirror) Set(context.Context, mirror.Record) error         { return errMirrorDown }
func (brokenMirror) Delete(context.Context, string) error             { return errMirrorDown }
func (brokenMirror) DeleteByTag(context.Context, string) (int, error) { return 0, errMirrorDown }
func (brokenMirror) DeleteExpired(context.Context) (int, error)       { return 0, errMirrorDown }
func (brokenMirror) Clear(context.Context) error                      { return errMirrorDown }
func (brokenMirror) Ping(context.Context) error                       { return errMirrorDown }

func newManager(t *testing.T, opts ...cache.Option) *cache.Manager {
	t.Helper()
	m, err := cache.New(opts...)
	require.NoError(t, err)
	return m
}

func get(t *testing.T, m *cache.Manager, key string, opts ...cache.EntryOption) (string, bool) {
	t.Helper()
	v, ok, err := cache.Get[string](context.Background(), m, key, nil, opts...)
	require.NoError(t, err)
	return v, ok
}

func set(t *testing.T, m *cache.Manager, key, value string, opts ...cache.EntryOption) {
	t.Helper()
	require.NoError(t, cache.Set(context.Background(), m, key, value, opts...))
}
