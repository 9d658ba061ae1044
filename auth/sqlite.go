package auth

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/cameronmore/sessionauth/sessions"
)

type SQLiteAuthStore struct {
	sqlStore
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Returns a new SQLite AuthStore and creates the necessary user and sessions tables if they don't exist
func NewSQLiteStore(ctx context.Context, db *sql.DB, log *slog.Logger) (*SQLiteAuthStore, error) {
	if err := Migrate(ctx, db, goose.DialectSQLite3, log); err != nil {
		return nil, err
	}
	return &SQLiteAuthStore{
		sqlStore: sqlStore{
			DB:          db,
			bind:        func(int) string { return "?" },
			isDuplicate: isSQLiteDuplicate,
			now:         time.Now,
		},
	}, nil
}

func isSQLiteDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

var _ sessions.AuthStore = (*SQLiteAuthStore)(nil)
