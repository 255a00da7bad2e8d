package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tiercache/pkg/health"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()

		resp := health.Run(context.Background(), nil)
		require.Equal(t, health.StatusHealthy, resp.Status)
		require.NoError(t, resp.Err())
	})

	t.Run("reports failing checks", func(t *testing.T) {
		t.Parallel()

		resp := health.Run(context.Background(), health.Checks{
			"memory": func(context.Context) error { return nil },
			"redis":  func(context.Context) error { return errors.New("connection refused") },
			"nil":    nil,
		})

		require.Equal(t, health.StatusUnhealthy, resp.Status)
		require.Equal(t, health.StatusHealthy, resp.Checks["memory"].Status)
		require.Equal(t, health.StatusHealthy, resp.Checks["nil"].Status)
		require.Equal(t, health.StatusUnhealthy, resp.Checks["redis"].Status)
		require.Equal(t, "connection refused", resp.Checks["redis"].Error)

		err := resp.Err()
		require.ErrorIs(t, err, health.ErrCheckFailed)
		require.Contains(t, err.Error(), "redis: connection refused")
	})

	t.Run("applies timeout", func(t *testing.T) {
		t.Parallel()

		resp := health.Run(context.Background(), health.Checks{
			"slow": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}, health.WithTimeout(20*time.Millisecond))

		require.Equal(t, health.StatusUnhealthy, resp.Status)
		require.Contains(t, resp.Checks["slow"].Error, "timeout")
	})
}
