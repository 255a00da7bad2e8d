// Package health runs named readiness checks against the cache tiers.
//
// Each dependency exposes a check closure (the memory tier, the Redis client,
// the Postgres pool). [Run] executes them concurrently under a shared timeout
// and reports a per-check [Response]:
//
//	resp := health.Run(ctx, health.Checks{
//	    "memory": manager.Healthcheck(),
//	    "redis":  redis.Healthcheck(client),
//	}, health.WithTimeout(2*time.Second))
//	if err := resp.Err(); err != nil {
//	    // not ready
//	}
package health
