package migrations

import (
	"context"
	"fmt"
	"io/fs"

	"pump-short-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded schema files in lexical
// order. Every file uses IF NOT EXISTS, so re-running is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := fs.Glob(PostgresFS, "postgres/*.sql")
	if err != nil {
		return fmt.Errorf("list embedded postgres migrations: %w", err)
	}

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}
