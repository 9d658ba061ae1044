package auth

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/cameronmore/sessionauth/sessions"
)

type PostgresAuthStore struct {
	sqlStore
}

// OpenPostgres connects through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Returns a new Postgres AuthStore and creates the necessary user and sessions tables if they don't exist
func NewPostgresAuthStore(ctx context.Context, db *sql.DB, log *slog.Logger) (*PostgresAuthStore, error) {
	if err := Migrate(ctx, db, goose.DialectPostgres, log); err != nil {
		return nil, err
	}
	return &PostgresAuthStore{
		sqlStore: sqlStore{
			DB:          db,
			bind:        func(n int) string { return "$" + strconv.Itoa(n) },
			isDuplicate: isPostgresDuplicate,
			now:         time.Now,
		},
	}, nil
}

// isPostgresDuplicate matches unique_violation (SQLSTATE 23505).
func isPostgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ sessions.AuthStore = (*PostgresAuthStore)(nil)
