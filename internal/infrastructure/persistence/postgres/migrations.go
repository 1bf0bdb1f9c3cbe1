package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the goose migrations found in dir to the engine.
func RunMigrations(ctx context.Context, engine *Engine, dir string) error {
	var (
		db      *sql.DB
		dialect goose.Dialect
	)
	switch engine.Driver() {
	case DriverPostgres:
		// goose requires database/sql; reuse the pool instead of dialing again.
		db = stdlib.OpenDBFromPool(engine.Pool())
		dialect = goose.DialectPostgres
		defer func() {
			if err := db.Close(); err != nil {
				slog.ErrorContext(ctx, "Failed to close migration database connection", "error", err)
			}
		}()
	case DriverSQLite:
		db = engine.DB()
		dialect = goose.DialectSQLite3
	default:
		return fmt.Errorf("unsupported driver for migrations: %s", engine.Driver())
	}

	provider, err := goose.NewProvider(dialect, db, os.DirFS(dir))
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, r := range results {
		slog.InfoContext(ctx, "migration applied", "source", r.Source.Path, "duration", r.Duration)
	}
	return nil
}
