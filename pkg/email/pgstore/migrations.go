package pgstore

import (
	"context"
	"embed"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mailkit/pkg/pg"
)

// MigrationsTable is the goose version table used for the email schema.
const MigrationsTable = "email_migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the embedded goose migrations that create the queue and log tables.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Migrate brings the email schema up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log logger) error {
	return pg.MigrateFS(ctx, pool, Migrations(), MigrationsTable, log)
}
