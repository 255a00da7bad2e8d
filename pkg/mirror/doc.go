// Package mirror provides the persistent tier behind the in-memory cache.
//
// A [Mirror] stores [Record] values keyed by string. Each record carries the
// encoded value together with its expiry, creation time, access metadata and
// tags, so a cold read reconstructs a complete cache entry.
//
// # Implementations
//
// [Redis] keeps each record under "{prefix}:e:{key}" with a native TTL and
// tracks tag membership in sets under "{prefix}:t:{tag}":
//
//	client := redis.MustConnect(ctx, redis.Config{URL: os.Getenv("REDIS_URL")})
//	m := mirror.NewRedis(client, mirror.WithPrefix("tiercache"))
//
// [Postgres] keeps records in the cache_entries table. PostgreSQL has no
// native expiry, so [Postgres.DeleteExpired] must be called periodically;
// the cache sweeper does that. Apply the schema with [Migrations]:
//
//	pool := db.MustConnect(ctx, cfg)
//	if err := db.Migrate(ctx, pool, mirror.Migrations(), "cache_migrations", log); err != nil {
//	    return err
//	}
//	m := mirror.NewPostgres(pool)
//
// # Error Handling
//
//   - [ErrNotFound] - no record for the key
//   - [ErrDecode] - a stored record could not be decoded
//   - [ErrEncode] - a record could not be encoded
//   - [ErrConflict] - a Redis write kept losing its WATCH transaction
//
// Callers in this module treat every mirror error as best-effort: the cache
// logs it and carries on with the memory tier.
package mirror
