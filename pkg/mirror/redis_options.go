package mirror

// RedisOption configures the Redis mirror.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix    string
	scanCount int64
	txRetries int
}

func defaultRedisOptions() *redisOptions {
	return &redisOptions{
		prefix:    "tiercache",
		scanCount: 100,
		txRetries: 10,
	}
}

// WithPrefix sets the key namespace for all mirror keys.
// Records are stored as "{prefix}:e:{key}" and tag sets as "{prefix}:t:{tag}".
// An empty prefix makes Clear flush the whole Redis database.
// Default: "tiercache".
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// WithScanCount sets the COUNT hint used by SCAN during Clear and DeleteExpired.
// Default: 100.
func WithScanCount(n int64) RedisOption {
	return func(o *redisOptions) {
		if n > 0 {
			o.scanCount = n
		}
	}
}

// WithTxRetries sets how many times Set and Delete retry their optimistic
// transaction when a concurrent write to the same key aborts it.
// Default: 10.
func WithTxRetries(n int) RedisOption {
	return func(o *redisOptions) {
		if n > 0 {
			o.txRetries = n
		}
	}
}
