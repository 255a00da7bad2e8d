package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Start launches the background sweeper and any scheduled warmers.
// With WithWarmOnStart, every scheduled warmer runs once before Start returns.
// It returns ErrAlreadyStarted if the manager is running.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.cancel = cancel
	m.cron = m.newCron(runCtx)
	stop, done, c := m.stop, m.done, m.cron
	m.mu.Unlock()

	go m.sweepLoop(runCtx, stop, done)
	if c != nil {
		c.Start()
	}

	if m.opts.warmOnStart {
		var errs []error
		for _, w := range m.warmers {
			if err := m.Warm(ctx, w.producers, w.opts...); err != nil {
				errs = append(errs, err)
			}
		}
		// Warm failures do not fail Start.
		if len(errs) > 0 {
			m.logger.WarnContext(ctx, "cache warm on start failed",
				slog.Int("warmers", len(errs)),
				slog.String("error", errors.Join(errs...).Error()),
			)
		}
	}

	m.logger.InfoContext(ctx, "cache started",
		slog.Duration("sweep_interval", m.opts.sweepInterval),
		slog.Int("warmers", len(m.warmers)),
	)
	return nil
}

// Stop signals the sweeper and scheduled warmers to exit and waits for an
// in-flight sweep or warm run to finish, or for ctx to be done.
// The memory tier is left as is. It returns ErrNotStarted if the manager
// is not running.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotStarted
	}
	m.running = false
	close(m.stop)
	done, c, cancel := m.done, m.cron, m.cancel
	m.cron = nil
	m.mu.Unlock()
	defer cancel()

	if c != nil {
		cronDone := c.Stop()
		select {
		case <-cronDone.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.logger.InfoContext(ctx, "cache stopped")
	return nil
}

// Shutdown returns a hook that stops the manager. A manager that was never
// started is not an error.
func (m *Manager) Shutdown() func(context.Context) error {
	return func(ctx context.Context) error {
		if err := m.Stop(ctx); err != nil && !errors.Is(err, ErrNotStarted) {
			return err
		}
		return nil
	}
}

// Sweep removes expired entries from the memory tier, asks the mirror to
// prune its expired data, and returns how many memory entries were removed.
func (m *Manager) Sweep(ctx context.Context) int {
	start := m.now()
	n := m.store.deleteExpired(start)

	pruned := 0
	if m.mirror != nil {
		var err error
		if pruned, err = m.mirror.DeleteExpired(ctx); err != nil {
			m.mirrorFailed(ctx, "delete_expired", "", err)
		}
	}

	m.logger.DebugContext(ctx, "cache sweep finished",
		slog.Int("removed", n),
		slog.Int("mirror_pruned", pruned),
		slog.Duration("took", m.now().Sub(start)),
	)
	return n
}

func (m *Manager) sweepLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.opts.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}
