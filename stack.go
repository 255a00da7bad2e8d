package tiercache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/db"
	"github.com/dmitrymomot/tiercache/pkg/health"
	"github.com/dmitrymomot/tiercache/pkg/logger"
	"github.com/dmitrymomot/tiercache/pkg/mirror"
	"github.com/dmitrymomot/tiercache/pkg/redis"
)

// Stack is a running cache with the connections it owns.
type Stack struct {
	// Cache is the started manager.
	Cache *cache.Manager

	logger *slog.Logger
	checks health.Checks
	hooks  []func(context.Context) error
}

// Open connects the configured mirror, builds and starts the cache manager.
// On failure every connection opened so far is closed.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Stack, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := o.logger
	if log == nil {
		log = logger.New(cfg.Log, o.extractors...)
	}

	s := &Stack{logger: log, checks: health.Checks{}}

	mir, err := s.openMirror(ctx, cfg)
	if err != nil {
		return nil, errors.Join(err, s.Shutdown(ctx))
	}

	cacheOpts := append(cfg.Cache.Options(), cache.WithLogger(log))
	if mir != nil {
		cacheOpts = append(cacheOpts, cache.WithMirror(mir))
	}
	cacheOpts = append(cacheOpts, o.cacheOpts...)

	m, err := cache.New(cacheOpts...)
	if err != nil {
		return nil, errors.Join(err, s.Shutdown(ctx))
	}
	if err := m.Start(ctx); err != nil {
		return nil, errors.Join(err, s.Shutdown(ctx))
	}

	s.Cache = m
	s.checks["cache"] = m.Healthcheck()
	s.hooks = append(s.hooks, m.Shutdown())

	log.InfoContext(ctx, "cache stack opened", slog.String("mirror", driverName(cfg)))
	return s, nil
}

func (s *Stack) openMirror(ctx context.Context, cfg Config) (mirror.Mirror, error) {
	switch cfg.Mirror.Driver {
	case DriverRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("tiercache: redis mirror: %w", err)
		}
		s.hooks = append(s.hooks, redis.Shutdown(client))
		s.checks["redis"] = redis.Healthcheck(client)
		return mirror.NewRedis(client, mirror.WithPrefix(cfg.Redis.Prefix)), nil

	case DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("tiercache: postgres mirror: %w", err)
		}
		s.hooks = append(s.hooks, db.Shutdown(pool))
		s.checks["postgres"] = db.Healthcheck(pool)

		if err := db.Migrate(ctx, pool, mirror.Migrations(), cfg.DB.MigrationsTable, s.logger); err != nil {
			return nil, fmt.Errorf("tiercache: postgres mirror: %w", err)
		}
		return mirror.NewPostgres(pool), nil
	}
	return nil, nil
}

// Ready runs every dependency check and returns nil when all pass.
func (s *Stack) Ready(ctx context.Context) error {
	return health.Run(ctx, s.checks, health.WithLogger(s.logger)).Err()
}

// Shutdown stops the cache manager, then closes connections in reverse
// order of opening. All hooks run even if one fails.
func (s *Stack) Shutdown(ctx context.Context) error {
	hooks := slices.Clone(s.hooks)
	s.hooks = nil
	slices.Reverse(hooks)

	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			s.logger.ErrorContext(ctx, "shutdown hook failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func driverName(cfg Config) string {
	if cfg.Mirror.Driver == "" {
		return DriverNone
	}
	return cfg.Mirror.Driver
}
