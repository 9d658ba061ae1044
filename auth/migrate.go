package auth

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrFailedToApplyMigrations = errors.New("failed to apply migrations")

// Migrate creates or upgrades the users and sessions tables.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
