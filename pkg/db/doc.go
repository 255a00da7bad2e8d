// Package db connects the cache mirror to PostgreSQL.
//
// This package wraps [github.com/jackc/pgx/v5/pgxpool] with
// environment-driven configuration, startup retries, a health check closure,
// a shutdown hook and a [github.com/pressly/goose/v3] migration runner used
// to create the mirror's cache_entries table.
//
// # Configuration
//
// [Config] is populated from environment variables:
//
//	DATABASE_CONN_URL           - PostgreSQL connection URL
//	DATABASE_MIGRATIONS_TABLE   - goose table for the mirror schema (default: cache_migrations)
//	DATABASE_MAX_OPEN_CONNS     - maximum open connections (default: 10)
//	DATABASE_MIN_CONNS          - minimum idle connections (default: 2)
//	DATABASE_HEALTHCHECK_PERIOD - pool health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - connection attempts at startup (default: 3)
//	DATABASE_RETRY_INTERVAL     - base wait between attempts (default: 5s)
//
// # Usage
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, mirror.Migrations(), cfg.MigrationsTable, log); err != nil {
//		return err
//	}
//
// # Error Handling
//
//   - [ErrEmptyConnectionURL] - empty connection URL
//   - [ErrFailedToParseDBConfig] - invalid connection string format
//   - [ErrFailedToOpenDBConnection] - connection failed after all retries
//   - [ErrHealthcheckFailed] - database ping failed
//   - [ErrSetDialect] - migration dialect configuration error
//   - [ErrApplyMigrations] - migration execution failed
//
// Errors are wrapped using [errors.Join] to preserve the original error context.
package db
