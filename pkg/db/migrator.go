package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies the goose migrations found at the root of migrations,
// recording progress in migrationTable.
//
// Example:
//
//	err := db.Migrate(ctx, pool, mirror.Migrations(), "cache_migrations", log)
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, migrationTable string, log *slog.Logger) error {
	// goose needs database/sql. OpenDBFromPool shares the pool's connections,
	// so the wrapper is not closed here.
	db := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLoggerAdapter{log})
	goose.SetTableName(migrationTable)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...), slog.String("component", "migrations"))
}

func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	// goose returns an error after calling Fatalf; exiting here would skip shutdown hooks.
	g.log.Error(fmt.Sprintf(format, args...), slog.String("component", "migrations"))
}
