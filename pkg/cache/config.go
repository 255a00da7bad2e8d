package cache

import "time"

// Config holds cache settings loadable from environment variables or YAML.
type Config struct {
	DefaultTTL     time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"5m" yaml:"default_ttl"`
	SweepInterval  time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"5m" yaml:"sweep_interval"`
	MaxBytes       int64         `env:"CACHE_MAX_BYTES" envDefault:"67108864" yaml:"max_bytes"`
	EvictionTarget float64       `env:"CACHE_EVICTION_TARGET" envDefault:"0.8" yaml:"eviction_target"`
	MaxEntries     int           `env:"CACHE_MAX_ENTRIES" envDefault:"10000" yaml:"max_entries"`
	// CompressionThreshold is the encoded size from which values are
	// zstd-compressed. Zero disables compression.
	CompressionThreshold int  `env:"CACHE_COMPRESSION_THRESHOLD" envDefault:"0" yaml:"compression_threshold"`
	WarmConcurrency      int  `env:"CACHE_WARM_CONCURRENCY" envDefault:"4" yaml:"warm_concurrency"`
	Coalesce             bool `env:"CACHE_COALESCE" envDefault:"false" yaml:"coalesce"`
}

// DefaultConfig returns the settings New uses when no option is given.
func DefaultConfig() Config {
	o := defaultOptions()
	return Config{
		DefaultTTL:      o.defaultTTL,
		SweepInterval:   o.sweepInterval,
		MaxBytes:        o.maxBytes,
		EvictionTarget:  o.evictionTarget,
		MaxEntries:      o.maxEntries,
		WarmConcurrency: o.warmConcurrency,
	}
}

// Options converts cfg into manager options.
func (cfg Config) Options() []Option {
	opts := []Option{
		WithDefaultTTL(cfg.DefaultTTL),
		WithSweepInterval(cfg.SweepInterval),
		WithMaxEntries(cfg.MaxEntries),
		WithMaxBytes(cfg.MaxBytes),
		WithEvictionTarget(cfg.EvictionTarget),
		WithCompression(cfg.CompressionThreshold),
		WithWarmConcurrency(cfg.WarmConcurrency),
	}
	if cfg.Coalesce {
		opts = append(opts, WithCoalescing())
	}
	return opts
}

// NewFromConfig creates a Manager from cfg. Options in opts are applied
// after the config and take precedence.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	return New(append(cfg.Options(), opts...)...)
}
