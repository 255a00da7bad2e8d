// Package tiercache wires a two-tier cache from configuration.
//
// [Open] builds a [cache.Manager], connects the persistent mirror selected by
// MIRROR_DRIVER (none, redis or postgres), applies the mirror schema when the
// driver is postgres, and starts the manager's sweeper. The returned [Stack]
// owns every connection it opened:
//
//	cfg, err := tiercache.LoadConfig()
//	if err != nil {
//	    return err
//	}
//	stack, err := tiercache.Open(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer stack.Shutdown(context.Background())
//
//	users := cache.Memoize(stack.Cache, userKey, repo.FindUser, cache.WithTags("users"))
//
// Configuration is read from environment variables with [LoadConfig] or from
// a YAML document with [ParseConfig]; both start from the documented defaults.
package tiercache
