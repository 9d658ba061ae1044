package auth_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cameronmore/sessionauth/auth"
	"github.com/cameronmore/sessionauth/sessions/sessionstest"
)

// Set SESSIONAUTH_TEST_POSTGRES_URL to a disposable database to run these.
func newPostgresStore(t *testing.T) *auth.PostgresAuthStore {
	t.Helper()
	url := os.Getenv("SESSIONAUTH_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("SESSIONAUTH_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	db, err := auth.OpenPostgres(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), "DELETE FROM sessions")
		_, _ = db.ExecContext(context.Background(), "DELETE FROM users")
		db.Close()
	})

	store, err := auth.NewPostgresAuthStore(ctx, db, nil)
	require.NoError(t, err)
	return store
}

func TestPostgresStore_RepositoryContract(t *testing.T) {
	sessionstest.RunRepositoryContract(t, newPostgresStore(t))
}

func TestPostgresStore_DirectoryContract(t *testing.T) {
	sessionstest.RunDirectoryContract(t, newPostgresStore(t))
}
