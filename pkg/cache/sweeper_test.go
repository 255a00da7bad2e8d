package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tiercache/pkg/cache"
)

func TestSweep(t *testing.T) {
	t.Parallel()

	clk := newClock()
	mir := newMemMirror(clk.Now)
	m := newManager(t, cache.WithMirror(mir), cache.WithClock(clk.Now))
	ctx := context.Background()

	set(t, m, "short", "v", cache.WithTTL(time.Minute))
	set(t, m, "long", "v", cache.WithTTL(time.Hour))

	clk.Advance(2 * time.Minute)
	require.Equal(t, 1, m.Sweep(ctx))

	s := m.Stats()
	require.Equal(t, 1, s.TotalKeys)
	require.Equal(t, uint64(1), s.Expired)
	require.Equal(t, 1, mir.sweepCount())
	require.False(t, mir.has("short"))
	require.True(t, mir.has("long"))
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("start and stop", func(t *testing.T) {
		t.Parallel()

		m := newManager(t)
		ctx := context.Background()

		require.ErrorIs(t, m.Stop(ctx), cache.ErrNotStarted)
		require.NoError(t, m.Start(ctx))
		require.ErrorIs(t, m.Start(ctx), cache.ErrAlreadyStarted)
		require.NoError(t, m.Stop(ctx))
		require.ErrorIs(t, m.Stop(ctx), cache.ErrNotStarted)

		require.NoError(t, m.Start(ctx), "restartable after stop")
		require.NoError(t, m.Shutdown()(ctx))
		require.NoError(t, m.Shutdown()(ctx), "shutdown of a stopped manager is a no-op")
	})

	t.Run("sweeper runs in background", func(t *testing.T) {
		t.Parallel()

		clk := newClock()
		mir := newMemMirror(clk.Now)
		m := newManager(t,
			cache.WithMirror(mir),
			cache.WithClock(clk.Now),
			cache.WithSweepInterval(10*time.Millisecond),
		)
		ctx := context.Background()

		set(t, m, "k", "v", cache.WithTTL(time.Second))
		clk.Advance(time.Minute)

		require.NoError(t, m.Start(ctx))
		t.Cleanup(func() { _ = m.Stop(context.Background()) })

		require.Eventually(t, func() bool {
			return m.Stats().TotalKeys == 0 && mir.sweepCount() > 0
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("stop honors context", func(t *testing.T) {
		t.Parallel()

		m := newManager(t)
		require.NoError(t, m.Start(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, m.Stop(ctx))
	})
}

func TestHealthcheck_NoMirror(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	require.NoError(t, m.Healthcheck()(context.Background()))
}
