package auth_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronmore/sessionauth/auth"
	"github.com/cameronmore/sessionauth/sessions"
	"github.com/cameronmore/sessionauth/sessions/sessionstest"
)

// newSQLiteStore uses a file so every pooled connection sees the same database.
func newSQLiteStore(t *testing.T) *auth.SQLiteAuthStore {
	t.Helper()
	ctx := context.Background()
	db, err := auth.OpenSQLite(ctx, filepath.Join(t.TempDir(), "sessionauth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := auth.NewSQLiteStore(ctx, db, nil)
	require.NoError(t, err)
	return store
}

func TestSQLiteStore_RepositoryContract(t *testing.T) {
	sessionstest.RunRepositoryContract(t, newSQLiteStore(t))
}

func TestSQLiteStore_DirectoryContract(t *testing.T) {
	sessionstest.RunDirectoryContract(t, newSQLiteStore(t))
}

func TestSQLiteStore_MigrateTwice(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	_, err := auth.NewSQLiteStore(ctx, store.DB, nil)
	assert.NoError(t, err)
}

func TestSQLiteStore_DuplicateSessionId(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	s := sessions.Session{Id: sessions.SessionId(sessions.NewSessionId()), UserId: "user-1"}

	_, err := store.SaveSession(ctx, s)
	require.NoError(t, err)
	_, err = store.SaveSession(ctx, s)
	assert.Error(t, err)
}

func TestSQLiteStore_PersistentSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := sessions.NewPersistentStore(newSQLiteStore(t), time.Hour, sessions.WithClock(clock))

	id, err := store.CreateSession(ctx, "user-1")
	require.NoError(t, err)

	userId, err := store.UserIdForSessionId(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userId)

	require.NoError(t, store.DestroySession(ctx, id))
	_, err = store.UserIdForSessionId(ctx, id)
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestSQLiteStore_SubSecondCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteStore(t)
	createdAt := time.Date(2025, 6, 1, 10, 0, 0, 900_000_000, time.UTC)

	_, err := repo.SaveSession(ctx, sessions.Session{Id: "sub-second", UserId: "user-1", CreatedAt: createdAt})
	require.NoError(t, err)

	now := createdAt.Add(time.Minute)
	store := sessions.NewPersistentStore(repo, time.Minute, sessions.WithClock(func() time.Time { return now }))

	userId, err := store.UserIdForSessionId(ctx, "sub-second")
	require.NoError(t, err, "the expiry instant itself is still valid")
	assert.Equal(t, "user-1", userId)

	now = now.Add(time.Nanosecond)
	_, err = store.UserIdForSessionId(ctx, "sub-second")
	assert.ErrorIs(t, err, sessions.ErrSessionExpired)
}

func TestSQLiteStore_MigratesSecondTimestamps(t *testing.T) {
	ctx := context.Background()
	db, err := auth.OpenSQLite(ctx, filepath.Join(t.TempDir(), "upgrade.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, os.DirFS("migrations"))
	require.NoError(t, err)
	_, err = provider.UpTo(ctx, 2)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO sessions (session_id, user_id, created_at) VALUES (?, ?, ?)", "old", "user-1", int64(1700000000))
	require.NoError(t, err)

	store, err := auth.NewSQLiteStore(ctx, db, nil)
	require.NoError(t, err)

	found, err := store.SearchSessions(ctx, sessions.Filter{"session_id": "old"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, time.Unix(1700000000, 0).Equal(found[0].CreatedAt), "got %s", found[0].CreatedAt)
}
