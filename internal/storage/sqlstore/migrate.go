package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies all pending migrations for the dialect
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	fsys, err := fs.Sub(migrations, path.Join("migrations", d.MigrationsDir))
	if err != nil {
		return fmt.Errorf("load %s migrations: %w", d.Name, err)
	}

	provider, err := goose.NewProvider(d.Goose, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
