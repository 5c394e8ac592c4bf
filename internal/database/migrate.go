package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// Migrate applies every embedded *.up.sql file that is not yet recorded in
// schema_migrations, in lexical order, each inside its own transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	files, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var upMigrations []string
	for _, file := range files {
		if name := file.Name(); strings.HasSuffix(name, ".up.sql") {
			upMigrations = append(upMigrations, name)
		}
	}

	sort.Strings(upMigrations)

	logger.Info("found migrations", zap.Int("count", len(upMigrations)))

	query := "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)"

	for _, migration := range upMigrations {
		var exists bool

		if err := pool.QueryRow(ctx, query, migration).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", migration, err)
		}

		if exists {
			logger.Debug("migration already applied", zap.String("version", migration))
			continue
		}

		sqlBytes, err := migrationFiles.ReadFile("migrations/" + migration)
		if err != nil {
			return fmt.Errorf("failed to read sql file %s: %w", migration, err)
		}

		if err := applyMigration(ctx, pool, migration, string(sqlBytes)); err != nil {
			return err
		}

		logger.Info("migration applied", zap.String("version", migration))
	}

	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, version, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", version, err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to apply sql file %s: %w", version, err)
	}

	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", version, err)
	}

	return tx.Commit(ctx)
}
