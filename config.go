package tiercache

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/db"
	"github.com/dmitrymomot/tiercache/pkg/logger"
	"github.com/dmitrymomot/tiercache/pkg/redis"
)

// Mirror drivers accepted by MirrorConfig.Driver.
const (
	DriverNone     = "none"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// ErrInvalidConfig is returned when the configuration cannot be used.
var ErrInvalidConfig = errors.New("tiercache: invalid configuration")

// Config is the complete configuration of a Stack.
type Config struct {
	Cache  cache.Config  `yaml:"cache"`
	Mirror MirrorConfig  `yaml:"mirror"`
	Redis  redis.Config  `yaml:"redis"`
	DB     db.Config     `yaml:"database"`
	Log    logger.Config `yaml:"log"`
}

// MirrorConfig selects the persistent tier.
type MirrorConfig struct {
	Driver string `env:"MIRROR_DRIVER" envDefault:"none" yaml:"driver"`
}

// DefaultConfig returns the configuration with every default applied and no
// environment overrides.
func DefaultConfig() Config {
	var cfg Config
	// Parsing an empty environment only applies envDefault tags and cannot fail.
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// ParseConfig reads a YAML document on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("tiercache: read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks that the selected mirror driver has what it needs.
// Cache ranges are validated by cache.New.
func (cfg Config) Validate() error {
	switch cfg.Mirror.Driver {
	case DriverNone, "":
	case DriverRedis:
		if cfg.Redis.URL == "" {
			return fmt.Errorf("%w: mirror driver %q requires REDIS_URL", ErrInvalidConfig, DriverRedis)
		}
	case DriverPostgres:
		if cfg.DB.ConnectionString == "" {
			return fmt.Errorf("%w: mirror driver %q requires DATABASE_CONN_URL", ErrInvalidConfig, DriverPostgres)
		}
	default:
		return fmt.Errorf("%w: unknown mirror driver %q", ErrInvalidConfig, cfg.Mirror.Driver)
	}
	return nil
}
