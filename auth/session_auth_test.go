package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronmore/sessionauth/auth"
	"github.com/cameronmore/sessionauth/sessions"
	"github.com/cameronmore/sessionauth/sessions/sessionstest"
)

const cookieName = "_my_session_id"

var bob = sessions.User{
	UserId:    "01HZZZBOB00000000000000000",
	Email:     "bob@example.com",
	FirstName: "Bob",
}

func requestWithCookie(value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: value})
	return r
}

func TestSessionAuth_CurrentUser(t *testing.T) {
	ctx := context.Background()
	a := auth.NewSessionAuth(auth.NewBaseAuth(cookieName, ""), sessions.NewMemoryStore(), sessionstest.NewDirectory(bob))

	id, ok := a.CreateSession(ctx, bob.UserId)
	require.True(t, ok)

	u := a.CurrentUser(requestWithCookie(id))
	require.NotNil(t, u)
	assert.Equal(t, bob.Email, u.Email)

	assert.Nil(t, a.CurrentUser(httptest.NewRequest(http.MethodGet, "/", nil)), "no cookie")
	assert.Nil(t, a.CurrentUser(requestWithCookie("unknown")), "unknown session")
}

func TestSessionAuth_CurrentUser_UserGone(t *testing.T) {
	ctx := context.Background()
	dir := sessionstest.NewDirectory(bob)
	a := auth.NewSessionAuth(auth.NewBaseAuth(cookieName, ""), sessions.NewMemoryStore(), dir)

	id, ok := a.CreateSession(ctx, bob.UserId)
	require.True(t, ok)
	require.NoError(t, dir.RemoveUser(ctx, bob))

	assert.Nil(t, a.CurrentUser(requestWithCookie(id)))
}

func TestSessionAuth_CreateSession_InvalidUser(t *testing.T) {
	a := auth.NewSessionAuth(auth.NewBaseAuth(cookieName, ""), sessions.NewMemoryStore(), nil)
	id, ok := a.CreateSession(context.Background(), "")
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestSessionAuth_DestroySession(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewMemoryStore()
	a := auth.NewSessionAuth(auth.NewBaseAuth(cookieName, ""), store, sessionstest.NewDirectory(bob))

	assert.False(t, a.DestroySession(nil))
	assert.False(t, a.DestroySession(httptest.NewRequest(http.MethodDelete, "/", nil)))

	id, ok := a.CreateSession(ctx, bob.UserId)
	require.True(t, ok)

	assert.True(t, a.DestroySession(requestWithCookie(id)))
	assert.False(t, a.DestroySession(requestWithCookie(id)), "already destroyed")

	_, ok = a.UserIdForSessionId(ctx, id)
	assert.False(t, ok)
}

func TestSessionAuth_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := sessions.NewExpiringStore(nil, time.Minute, sessions.WithClock(clock))
	a := auth.NewSessionAuth(auth.NewBaseAuth(cookieName, ""), store, sessionstest.NewDirectory(bob))

	id, ok := a.CreateSession(ctx, bob.UserId)
	require.True(t, ok)
	require.NotNil(t, a.CurrentUser(requestWithCookie(id)))

	now = now.Add(time.Minute + time.Second)
	assert.Nil(t, a.CurrentUser(requestWithCookie(id)))
	assert.False(t, a.DestroySession(requestWithCookie(id)))
}

func TestSessionAuth_StorageFailureReadsAsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	repo := sessionstest.NewRepository()
	a := auth.NewSessionAuth(auth.NewBaseAuth(cookieName, ""), sessions.NewPersistentStore(repo, 0), sessionstest.NewDirectory(bob))

	id, ok := a.CreateSession(ctx, bob.UserId)
	require.True(t, ok)

	repo.SearchErr = errors.New("connection refused")
	assert.Nil(t, a.CurrentUser(requestWithCookie(id)))
	assert.False(t, a.DestroySession(requestWithCookie(id)))

	repo.SearchErr = nil
	assert.NotNil(t, a.CurrentUser(requestWithCookie(id)))
}

func TestSessionAuth_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	a := auth.NewSessionAuth(auth.NewBaseAuth(cookieName, ""), sessions.NewMemoryStore(), sessionstest.NewDirectory(bob))
	a.Metrics = auth.NewMetrics(reg)

	id, ok := a.CreateSession(ctx, bob.UserId)
	require.True(t, ok)
	_, ok = a.CreateSession(ctx, "")
	require.False(t, ok)

	a.CurrentUser(requestWithCookie(id))
	a.CurrentUser(requestWithCookie("missing"))
	a.DestroySession(requestWithCookie(id))

	expected := `
# HELP sessionauth_sessions_created_total Sessions created, by result.
# TYPE sessionauth_sessions_created_total counter
sessionauth_sessions_created_total{result="invalid"} 1
sessionauth_sessions_created_total{result="ok"} 1
# HELP sessionauth_session_lookups_total Session id lookups, by result.
# TYPE sessionauth_session_lookups_total counter
sessionauth_session_lookups_total{result="not_found"} 1
sessionauth_session_lookups_total{result="ok"} 1
# HELP sessionauth_sessions_destroyed_total Session destroy attempts, by result.
# TYPE sessionauth_sessions_destroyed_total counter
sessionauth_sessions_destroyed_total{result="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"sessionauth_sessions_created_total",
		"sessionauth_session_lookups_total",
		"sessionauth_sessions_destroyed_total",
	))
}

func TestSessionAuth_NilMetrics(t *testing.T) {
	a := auth.NewSessionAuth(auth.NewBaseAuth(cookieName, ""), sessions.NewMemoryStore(), nil)
	assert.NotPanics(t, func() {
		a.CreateSession(context.Background(), "user-1")
	})
}
