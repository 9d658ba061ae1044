package auth

import (
	"context"

	"github.com/cameronmore/sessionauth/sessions"
)

type userContextKey struct{}

// WithUser stores the authenticated user on ctx.
func WithUser(ctx context.Context, u *sessions.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext returns the user set by Authmiddleware.
func UserFromContext(ctx context.Context) (*sessions.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*sessions.User)
	return u, ok && u != nil
}
