package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// Producer computes the value of one hot key for Warm.
// Returning ErrNoValue skips the key.
type Producer func(ctx context.Context) (any, error)

// ProducerOf adapts a typed function into a Producer.
func ProducerOf[V any](fn func(ctx context.Context) (V, error)) Producer {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

// Warm runs every producer and stores each result under its key with opts.
// Producers run concurrently up to the WithWarmConcurrency limit. A failing
// or panicking producer does not stop the others; all failures are returned
// joined with ErrWarm.
func (m *Manager) Warm(ctx context.Context, producers map[string]Producer, opts ...EntryOption) error {
	keys := make([]string, 0, len(producers))
	for key := range producers {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(m.opts.warmConcurrency)

	for _, key := range keys {
		produce := producers[key]
		g.Go(func() error {
			if err := m.warmKey(ctx, key, produce, opts); err != nil {
				m.logger.WarnContext(ctx, "cache warm failed",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	m.logger.InfoContext(ctx, "cache warmed",
		slog.Int("keys", len(keys)),
		slog.Int("failed", len(errs)),
	)

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrWarm}, errs...)...)
}

func (m *Manager) warmKey(ctx context.Context, key string, produce Producer, opts []EntryOption) (err error) {
	if produce == nil {
		return nil
	}

	eo, err := m.entryOptions(ctx, key, opts)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("producer panic: %v", r)
		}
	}()

	v, err := produce(ctx)
	if errors.Is(err, ErrNoValue) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.set(ctx, key, v, eo)
}

type warmerSpec struct {
	producers map[string]Producer
	schedule  string
	opts      []EntryOption
}

type warmer struct {
	schedule  cron.Schedule
	producers map[string]Producer
	opts      []EntryOption
}

var warmScheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func parseWarmers(specs []warmerSpec) ([]warmer, error) {
	warmers := make([]warmer, 0, len(specs))
	for _, ws := range specs {
		schedule, err := warmScheduleParser.Parse(ws.schedule)
		if err != nil {
			return nil, fmt.Errorf("%w: warm schedule %q: %w", ErrInvalidConfig, ws.schedule, err)
		}
		warmers = append(warmers, warmer{
			schedule:  schedule,
			producers: ws.producers,
			opts:      ws.opts,
		})
	}
	return warmers, nil
}

// newCron builds the scheduler for registered warmers, or nil if there are none.
func (m *Manager) newCron(ctx context.Context) *cron.Cron {
	if len(m.warmers) == 0 {
		return nil
	}

	log := cronLogger{logger: m.logger}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	for _, w := range m.warmers {
		c.Schedule(w.schedule, cron.FuncJob(func() {
			_ = m.Warm(ctx, w.producers, w.opts...)
		}))
	}
	return c
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, slog.String("error", err.Error()))...)
}
