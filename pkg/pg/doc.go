// Package pg opens pgx/v5 connection pools and applies goose migrations.
//
// Connect retries until the database answers a ping or the attempts run out.
// MigrateFS runs embedded migrations through a goose provider with its own
// version table, so several schemas can live in one database.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, migrations, "mailkit_migrations", slog.Default()); err != nil {
//		return err
//	}
//
// Code, IsDuplicateKeyError, IsRetryable and IsNotFoundError classify pgx
// errors so stores can map them to their own sentinels.
package pg
