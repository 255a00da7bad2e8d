package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/tiercache"
	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/logger"
)

type slot struct {
	Start time.Time `json:"start"`
	Free  bool      `json:"free"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := tiercache.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	// Warm tomorrow's availability every night and once at startup.
	stack, err := tiercache.Open(ctx, cfg,
		tiercache.WithLogger(log),
		tiercache.WithCacheOptions(
			cache.WithWarmSchedule("0 3 * * *", map[string]cache.Producer{
				availabilityKey(tomorrow()): cache.ProducerOf(func(ctx context.Context) ([]slot, error) {
					return loadSlots(ctx, tomorrow())
				}),
			}, cache.WithTTL(24*time.Hour), cache.WithTags("availability")),
			cache.WithWarmOnStart(),
		),
	)
	if err != nil {
		log.Error("failed to open cache", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slots := cache.Memoize(stack.Cache, availabilityKey, loadSlots,
		cache.WithTTL(10*time.Minute), cache.WithTags("availability"))

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := stack.Shutdown(shutdownCtx)
			cancel()
			if err != nil {
				log.Error("shutdown failed", slog.String("error", err.Error()))
				os.Exit(1)
			}
			return
		case <-ticker.C:
			if _, err := slots(ctx, time.Now()); err != nil {
				log.Error("load availability", slog.String("error", err.Error()))
			}
			s := stack.Cache.Stats()
			log.Info("cache stats",
				slog.Uint64("hits", s.Hits),
				slog.Uint64("misses", s.Misses),
				slog.Float64("hit_rate", s.HitRate),
				slog.Int("keys", s.TotalKeys),
			)
		}
	}
}

func availabilityKey(day time.Time) string {
	return fmt.Sprintf("availability:%s", day.Format(time.DateOnly))
}

func tomorrow() time.Time {
	return time.Now().AddDate(0, 0, 1)
}

// loadSlots stands in for a slow query against the booking database.
func loadSlots(ctx context.Context, day time.Time) ([]slot, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(200 * time.Millisecond):
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC)
	out := make([]slot, 0, 8)
	for i := range 8 {
		out = append(out, slot{Start: start.Add(time.Duration(i) * time.Hour), Free: i%3 != 0})
	}
	return out, nil
}
