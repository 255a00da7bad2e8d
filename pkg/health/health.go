package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout = 5 * time.Second

	// StatusHealthy indicates all checks passed.
	StatusHealthy = "healthy"
	// StatusUnhealthy indicates one or more checks failed.
	StatusUnhealthy = "unhealthy"
)

// CheckFunc is the health check signature shared by every tier.
type CheckFunc func(ctx context.Context) error

// Checks is a map of named health check functions.
type Checks map[string]CheckFunc

// Response is the aggregated result of Run.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is the status of a single health check.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Err returns nil when every check passed, otherwise ErrCheckFailed joined
// with one error per failing check in name order.
func (r *Response) Err() error {
	if r == nil || r.Status == StatusHealthy {
		return nil
	}

	names := make([]string, 0, len(r.Checks))
	for name, c := range r.Checks {
		if c.Status != StatusHealthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	errs := []error{ErrCheckFailed}
	for _, name := range names {
		errs = append(errs, fmt.Errorf("%s: %s", name, r.Checks[name].Error))
	}
	return errors.Join(errs...)
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures Run.
type Option func(*config)

// WithTimeout sets the shared timeout for all checks.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used to report failing checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Run executes all checks concurrently and returns the aggregated result.
// A nil check counts as healthy.
func Run(ctx context.Context, checks Checks, opts ...Option) *Response {
	if len(checks) == 0 {
		return &Response{Status: StatusHealthy}
	}

	cfg := newConfig(opts...)
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]Check, len(checks))
		status  = StatusHealthy
	)

	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			result := Check{Status: StatusHealthy}
			if check != nil {
				if err := check(ctx); err != nil {
					if errors.Is(ctx.Err(), context.DeadlineExceeded) {
						err = errors.Join(ErrCheckTimeout, err)
					}
					result.Status = StatusUnhealthy
					result.Error = err.Error()
					cfg.logger.WarnContext(ctx, "health check failed",
						slog.String("check", name),
						slog.String("error", err.Error()),
					)
				}
			}

			mu.Lock()
			results[name] = result
			if result.Status != StatusHealthy {
				status = StatusUnhealthy
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return &Response{Status: status, Checks: results}
}
