// Package redis connects the cache mirror to Redis.
//
// It wraps [github.com/redis/go-redis/v9] with environment-driven
// configuration, startup retries, a health check closure and a shutdown hook.
//
// # Configuration
//
// [Config] is populated from environment variables:
//
//	REDIS_URL             - redis:// or rediss:// connection URL
//	REDIS_PREFIX          - key namespace for the mirror (default: tiercache)
//	REDIS_POOL_SIZE       - maximum connections (default: 10)
//	REDIS_MIN_IDLE_CONNS  - minimum idle connections (default: 5)
//	REDIS_MAX_IDLE_TIME   - maximum connection idle time (default: 10m)
//	REDIS_MAX_ACTIVE_TIME - maximum connection lifetime (default: 30m)
//	REDIS_RETRY_ATTEMPTS  - connection attempts at startup (default: 3)
//	REDIS_RETRY_INTERVAL  - base wait between attempts (default: 5s)
//	REDIS_READ_TIMEOUT    - read timeout (default: 3s)
//	REDIS_WRITE_TIMEOUT   - write timeout (default: 3s)
//	REDIS_DIAL_TIMEOUT    - dial timeout (default: 5s)
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	m := mirror.NewRedis(client, mirror.WithPrefix(cfg.Prefix))
//
// [Healthcheck] returns a func(context.Context) error for readiness checks and
// [Shutdown] returns a hook that closes the client.
//
// # Error Handling
//
//   - [ErrEmptyConnectionURL] - empty connection URL
//   - [ErrFailedToParseURL] - invalid URL format or scheme
//   - [ErrConnectionFailed] - no successful PING after all attempts
//   - [ErrHealthcheckFailed] - PING failed during a health check
//
// Errors are wrapped using [errors.Join] to preserve the original error context.
package redis
