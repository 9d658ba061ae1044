// Package sessionstest holds contract suites that every storage backend must pass.
package sessionstest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronmore/sessionauth/sessions"
)

// RunRepositoryContract verifies a SessionRepository implementation.
func RunRepositoryContract(t *testing.T, repo sessions.SessionRepository) {
	ctx := context.Background()

	t.Run("save stamps created_at", func(t *testing.T) {
		before := time.Now().Add(-time.Second)
		saved, err := repo.SaveSession(ctx, sessions.Session{
			Id:     sessions.SessionId(sessions.NewSessionId()),
			UserId: "contract-user-1",
		})
		require.NoError(t, err)
		assert.False(t, saved.CreatedAt.IsZero())
		assert.True(t, saved.CreatedAt.After(before), "created_at %s should be recent", saved.CreatedAt)
	})

	t.Run("save keeps explicit created_at", func(t *testing.T) {
		createdAt := time.Date(2024, 3, 1, 12, 0, 0, 900_000_123, time.UTC)
		id := sessions.SessionId(sessions.NewSessionId())
		_, err := repo.SaveSession(ctx, sessions.Session{Id: id, UserId: "contract-user-2", CreatedAt: createdAt})
		require.NoError(t, err)

		found, err := repo.SearchSessions(ctx, sessions.Filter{"session_id": id.String()})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.True(t, createdAt.Equal(found[0].CreatedAt), "got %s", found[0].CreatedAt)
	})

	t.Run("search by session id", func(t *testing.T) {
		id := sessions.SessionId(sessions.NewSessionId())
		_, err := repo.SaveSession(ctx, sessions.Session{Id: id, UserId: "contract-user-3"})
		require.NoError(t, err)

		found, err := repo.SearchSessions(ctx, sessions.Filter{"session_id": id.String()})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, id, found[0].Id)
		assert.Equal(t, "contract-user-3", found[0].UserId)
	})

	t.Run("search by user id", func(t *testing.T) {
		for range 2 {
			_, err := repo.SaveSession(ctx, sessions.Session{
				Id:     sessions.SessionId(sessions.NewSessionId()),
				UserId: "contract-user-4",
			})
			require.NoError(t, err)
		}
		found, err := repo.SearchSessions(ctx, sessions.Filter{"user_id": "contract-user-4"})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("search unknown id", func(t *testing.T) {
		found, err := repo.SearchSessions(ctx, sessions.Filter{"session_id": "does-not-exist"})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("unsupported filter", func(t *testing.T) {
		_, err := repo.SearchSessions(ctx, sessions.Filter{"password": "x"})
		assert.ErrorIs(t, err, sessions.ErrUnsupportedFilter)
	})

	t.Run("remove", func(t *testing.T) {
		id := sessions.SessionId(sessions.NewSessionId())
		saved, err := repo.SaveSession(ctx, sessions.Session{Id: id, UserId: "contract-user-5"})
		require.NoError(t, err)

		require.NoError(t, repo.RemoveSession(ctx, saved))
		found, err := repo.SearchSessions(ctx, sessions.Filter{"session_id": id.String()})
		require.NoError(t, err)
		assert.Empty(t, found)

		err = repo.RemoveSession(ctx, saved)
		assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
	})
}

// RunDirectoryContract verifies a UserDirectory implementation.
func RunDirectoryContract(t *testing.T, dir sessions.UserDirectory) {
	ctx := context.Background()

	alice := sessions.User{
		UserId:         "01HZZZALICE0000000000000000",
		Email:          "alice@example.com",
		HashedPassword: "hash-a",
		FirstName:      "Alice",
	}

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, dir.SaveUser(ctx, alice))

		u, err := dir.LoadUserByUserId(ctx, alice.UserId)
		require.NoError(t, err)
		assert.Equal(t, alice, u)
	})

	t.Run("duplicate user", func(t *testing.T) {
		err := dir.SaveUser(ctx, alice)
		assert.ErrorIs(t, err, sessions.ErrUserAlreadyExists)
	})

	t.Run("empty id rejected", func(t *testing.T) {
		err := dir.SaveUser(ctx, sessions.User{Email: "nobody@example.com"})
		assert.ErrorIs(t, err, sessions.ErrInvalidUserId)
	})

	t.Run("load missing", func(t *testing.T) {
		_, err := dir.LoadUserByUserId(ctx, "missing")
		assert.ErrorIs(t, err, sessions.ErrUserNotFound)
	})

	t.Run("search by email", func(t *testing.T) {
		users, err := dir.SearchUsers(ctx, sessions.Filter{"email": alice.Email})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, alice.UserId, users[0].UserId)

		users, err = dir.SearchUsers(ctx, sessions.Filter{"email": "nobody@example.com"})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("search unsupported field", func(t *testing.T) {
		_, err := dir.SearchUsers(ctx, sessions.Filter{"shoe_size": "42"})
		assert.ErrorIs(t, err, sessions.ErrUnsupportedFilter)
	})

	t.Run("update", func(t *testing.T) {
		err := dir.UpdateUser(ctx, alice.UserId, sessions.Filter{"last_name": "Liddell", "reset_token": "tok"})
		require.NoError(t, err)

		u, err := dir.LoadUserByUserId(ctx, alice.UserId)
		require.NoError(t, err)
		assert.Equal(t, "Liddell", u.LastName)
		assert.Equal(t, "tok", u.ResetToken)
	})

	t.Run("update unsupported field", func(t *testing.T) {
		err := dir.UpdateUser(ctx, alice.UserId, sessions.Filter{"user_id": "other"})
		assert.ErrorIs(t, err, sessions.ErrUnsupportedFilter)
	})

	t.Run("update missing user", func(t *testing.T) {
		err := dir.UpdateUser(ctx, "missing", sessions.Filter{"first_name": "x"})
		assert.ErrorIs(t, err, sessions.ErrUserNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		u, err := dir.LoadUserByUserId(ctx, alice.UserId)
		require.NoError(t, err)
		require.NoError(t, dir.RemoveUser(ctx, u))

		_, err = dir.LoadUserByUserId(ctx, alice.UserId)
		assert.ErrorIs(t, err, sessions.ErrUserNotFound)

		assert.ErrorIs(t, dir.RemoveUser(ctx, u), sessions.ErrUserNotFound)
	})
}
