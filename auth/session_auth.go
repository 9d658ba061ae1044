package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cameronmore/sessionauth/sessions"
)

// SessionAuth authenticates requests by their session cookie. Which session
// semantics apply (plain, expiring, persistent) depends on the Resolver.
//
// Every failure reads as "not authenticated": callers cannot tell an expired
// session from an unknown one or from a storage outage. The cause is logged.
type SessionAuth struct {
	BaseAuth
	Sessions sessions.Resolver
	Users    sessions.UserDirectory
	Logger   *slog.Logger
	Metrics  *Metrics
}

func NewSessionAuth(base BaseAuth, resolver sessions.Resolver, users sessions.UserDirectory) *SessionAuth {
	return &SessionAuth{
		BaseAuth: base,
		Sessions: resolver,
		Users:    users,
		Logger:   slog.Default(),
	}
}

func (a *SessionAuth) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// CreateSession returns a new session id for userId, or false.
func (a *SessionAuth) CreateSession(ctx context.Context, userId string) (string, bool) {
	id, err := a.Sessions.CreateSession(ctx, userId)
	a.Metrics.sessionCreated(err)
	if err != nil {
		a.logger().WarnContext(ctx, "session not created", "user_id", userId, "error", err)
		return "", false
	}
	return id, true
}

// UserIdForSessionId resolves a session id to its user id, or false.
func (a *SessionAuth) UserIdForSessionId(ctx context.Context, sessionId string) (string, bool) {
	userId, err := a.Sessions.UserIdForSessionId(ctx, sessionId)
	a.Metrics.sessionLookup(err)
	if err != nil {
		a.logger().DebugContext(ctx, "session lookup failed", "result", resultLabel(err), "error", err)
		return "", false
	}
	return userId, true
}

// CurrentUser follows cookie -> session -> user, returning nil at the first gap.
func (a *SessionAuth) CurrentUser(r *http.Request) *sessions.User {
	sessionId, ok := a.SessionCookie(r)
	if !ok {
		return nil
	}
	userId, ok := a.UserIdForSessionId(r.Context(), sessionId)
	if !ok {
		return nil
	}
	if a.Users == nil {
		return nil
	}
	u, err := a.Users.LoadUserByUserId(r.Context(), userId)
	if err != nil {
		a.logger().DebugContext(r.Context(), "session user not loaded", "user_id", userId, "error", err)
		return nil
	}
	return &u
}

// DestroySession ends the session named by the request's cookie. It is false for a
// nil request, a missing cookie, or a session that does not currently resolve.
func (a *SessionAuth) DestroySession(r *http.Request) bool {
	if r == nil {
		return false
	}
	sessionId, ok := a.SessionCookie(r)
	if !ok {
		return false
	}
	err := a.Sessions.DestroySession(r.Context(), sessionId)
	a.Metrics.sessionDestroyed(err)
	if err != nil {
		a.logger().DebugContext(r.Context(), "session not destroyed", "result", resultLabel(err), "error", err)
		return false
	}
	return true
}

var (
	_ Authenticator        = BaseAuth{}
	_ SessionAuthenticator = (*SessionAuth)(nil)
)
