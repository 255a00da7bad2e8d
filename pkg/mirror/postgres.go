package mirror

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations that create the cache_entries table.
// The returned filesystem has the SQL files at its root.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		// The embedded directory is fixed at compile time.
		panic(err)
	}
	return sub
}

// PostgresDB is the subset of *pgxpool.Pool used by the Postgres mirror.
type PostgresDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const (
	pgSelect = `SELECT key, value, tags, expires_at, created_at, last_accessed_at, access_count
FROM cache_entries WHERE key = $1`

	pgUpsert = `INSERT INTO cache_entries (key, value, tags, expires_at, created_at, last_accessed_at, access_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (key) DO UPDATE SET
	value = EXCLUDED.value,
	tags = EXCLUDED.tags,
	expires_at = EXCLUDED.expires_at,
	created_at = EXCLUDED.created_at,
	last_accessed_at = EXCLUDED.last_accessed_at,
	access_count = EXCLUDED.access_count`

	pgDelete        = `DELETE FROM cache_entries WHERE key = $1`
	pgDeleteByTag   = `DELETE FROM cache_entries WHERE $1 = ANY(tags)`
	pgDeleteExpired = `DELETE FROM cache_entries WHERE expires_at <= $1`
	pgClear         = `DELETE FROM cache_entries`
)

// Postgres is a mirror backed by the cache_entries table.
// PostgreSQL has no native expiry, so expired rows stay until DeleteExpired runs.
type Postgres struct {
	db PostgresDB
}

// NewPostgres creates a PostgreSQL-backed mirror.
// The pool should be obtained from pkg/db.Connect and migrated with Migrations.
func NewPostgres(db PostgresDB) *Postgres {
	return &Postgres{db: db}
}

// Get returns the record stored under key.
// Expired rows are returned as is; deciding whether they are usable is up to the caller.
func (p *Postgres) Get(ctx context.Context, key string) (Record, error) {
	var rec Record

	err := p.db.QueryRow(ctx, pgSelect, key).Scan(
		&rec.Key,
		&rec.Value,
		&rec.Tags,
		&rec.ExpiresAt,
		&rec.CreatedAt,
		&rec.LastAccessedAt,
		&rec.AccessCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	return rec, nil
}

// Set upserts rec. Tags are replaced, not merged.
func (p *Postgres) Set(ctx context.Context, rec Record) error {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := p.db.Exec(ctx, pgUpsert,
		rec.Key,
		rec.Value,
		tags,
		rec.ExpiresAt,
		rec.CreatedAt,
		rec.LastAccessedAt,
		rec.AccessCount,
	)
	return err
}

// Delete removes the row for key.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.db.Exec(ctx, pgDelete, key)
	return err
}

// DeleteByTag removes every row tagged with tag.
func (p *Postgres) DeleteByTag(ctx context.Context, tag string) (int, error) {
	res, err := p.db.Exec(ctx, pgDeleteByTag, tag)
	if err != nil {
		return 0, err
	}
	return int(res.RowsAffected()), nil
}

// DeleteExpired removes every row whose expiry has passed.
func (p *Postgres) DeleteExpired(ctx context.Context) (int, error) {
	res, err := p.db.Exec(ctx, pgDeleteExpired, time.Now())
	if err != nil {
		return 0, err
	}
	return int(res.RowsAffected()), nil
}

// Clear removes every row from cache_entries.
func (p *Postgres) Clear(ctx context.Context) error {
	_, err := p.db.Exec(ctx, pgClear)
	return err
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

var (
	_ Mirror = (*Postgres)(nil)
	_ Pinger = (*Postgres)(nil)
)
