// Package cache provides a two-tier, TTL-based, tag-addressable cache.
//
// A [Manager] keeps entries in a bounded in-memory tier and, optionally,
// writes them through to a persistent [mirror.Mirror] (Redis or PostgreSQL).
// Reads check memory first, then the mirror, then an optional fallback whose
// result is stored through both tiers.
//
// # Usage
//
//	m, err := cache.New(
//	    cache.WithMirror(mirror.NewRedis(client)),
//	    cache.WithDefaultTTL(5*time.Minute),
//	    cache.WithMaxEntries(10000),
//	    cache.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//	_ = m.Start(ctx)
//	defer m.Stop(ctx)
//
//	slots, ok, err := cache.Get(ctx, m, "availability:2024-05-01",
//	    func(ctx context.Context) ([]Slot, error) { return repo.Slots(ctx, day) },
//	    cache.WithTTL(time.Minute), cache.WithTags("availability"),
//	)
//
//	m.ClearByTag(ctx, "availability")
//
// # Values
//
// Values are encoded with a [Codec] (JSON by default) when stored and decoded
// on every hit, so a caller never shares memory with a cached entry. Encoded
// values of at least [WithCompression] bytes are zstd-compressed.
//
// # Eviction
//
// When a Set pushes the memory tier above [WithMaxEntries] or [WithMaxBytes],
// expired entries are purged first, then least recently accessed entries are
// evicted until both measures are at or below [WithEvictionTarget] of their
// ceilings. An entry larger than the byte ceiling on its own is still stored
// and a warning is logged. Evictions are not propagated to the mirror.
//
// # Mirror failures
//
// Mirror errors never reach callers. They are logged at warn level, counted
// in [Stats].MirrorErrors, and the operation proceeds on the memory tier.
//
// # Background work
//
// [Manager.Start] runs a sweeper that removes expired entries from both tiers
// every [WithSweepInterval], plus cron-scheduled warmers registered with
// [WithWarmSchedule]. [Manager.Stop] halts them and waits for in-flight work.
//
// # Concurrent misses
//
// By default concurrent Gets that miss on the same key each run their own
// fallback. [WithCoalescing] makes them share one invocation.
package cache
