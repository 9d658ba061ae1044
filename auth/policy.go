package auth

import (
	"net/http"
	"strings"

	"github.com/cameronmore/sessionauth/sessions"
)

// Authenticator is what the middleware needs from an auth variant.
type Authenticator interface {
	AuthorizationHeader(r *http.Request) (string, bool)
	SessionCookie(r *http.Request) (string, bool)
	CurrentUser(r *http.Request) *sessions.User
}

// BaseAuth extracts credentials but never authenticates anyone. Richer variants
// embed it and provide their own CurrentUser.
type BaseAuth struct {
	CookieName string
	// Secret, when set, means session cookies are signed and must verify.
	Secret string
}

func NewBaseAuth(cookieName string, secret string) BaseAuth {
	return BaseAuth{CookieName: cookieName, Secret: secret}
}

// RequireAuth reports whether path needs authentication given the exemption list.
//
// A pattern ending in "*" exempts every path starting with what precedes the
// "*". Any other pattern names a directory: the path is exempt when it equals
// the pattern or continues below it, with trailing slashes ignored.
func RequireAuth(path string, excludedPaths []string) bool {
	if path == "" || len(excludedPaths) == 0 {
		return true
	}
	for _, raw := range excludedPaths {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return false
			}
			continue
		}
		dir := strings.TrimRight(pattern, "/")
		if strings.TrimRight(path, "/") == dir || strings.HasPrefix(path, dir+"/") {
			return false
		}
	}
	return true
}

func (BaseAuth) RequireAuth(path string, excludedPaths []string) bool {
	return RequireAuth(path, excludedPaths)
}

// AuthorizationHeader returns the raw Authorization header.
func (BaseAuth) AuthorizationHeader(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	values, ok := r.Header["Authorization"]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// SessionCookie returns the session id carried by the CookieName cookie.
func (b BaseAuth) SessionCookie(r *http.Request) (string, bool) {
	return sessions.SessionIdFromCookie(r, b.CookieName, b.Secret)
}

// CurrentUser always returns nil.
func (BaseAuth) CurrentUser(r *http.Request) *sessions.User {
	return nil
}
