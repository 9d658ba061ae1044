package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"github.com/cameronmore/sessionauth/password"
	"github.com/cameronmore/sessionauth/sessions"
)

var ErrMissingEmail = errors.New("email missing")

var ErrMissingPassword = errors.New("password missing")

// SessionAuthenticator is an Authenticator that can also open and close sessions.
type SessionAuthenticator interface {
	Authenticator
	CreateSession(ctx context.Context, userId string) (string, bool)
	DestroySession(r *http.Request) bool
}

// An authentication manager that wires an auth variant, a user directory and a
// password hasher into HTTP handlers.
type AuthContext struct {
	Auth          Authenticator
	Users         sessions.UserDirectory
	Hasher        password.Hasher
	ExcludedPaths []string

	// CookieTTL bounds the session cookie; zero leaves it a browser-session cookie.
	CookieTTL     time.Duration
	SecureCookies bool
	Logger        *slog.Logger
}

// Returns a new AuthContext for auth, users and hasher. Requests to excludedPaths skip authentication.
func NewAuthContext(auth Authenticator, users sessions.UserDirectory, hasher password.Hasher, excludedPaths []string) *AuthContext {
	return &AuthContext{
		Auth:          auth,
		Users:         users,
		Hasher:        hasher,
		ExcludedPaths: excludedPaths,
		Logger:        slog.Default(),
	}
}

// Router mounts the API under /api/v1. metrics, when non-nil, is served at /metrics without auth.
func (ac *AuthContext) Router(metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ac.Authmiddleware)

		r.Get("/status", ac.StatusHandler)
		r.Get("/unauthorized", func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
		})
		r.Get("/forbidden", func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusForbidden, "Forbidden")
		})
		r.Get("/users/me", ac.MeHandler)
		r.Post("/users", ac.RegisterHandler)

		if _, ok := ac.Auth.(SessionAuthenticator); ok {
			r.Post("/auth_session/login", ac.LoginHandler)
			r.Post("/auth_session/login/", ac.LoginHandler)
			r.Delete("/auth_session/logout", ac.LogoutHandler)
			r.Delete("/auth_session/logout/", ac.LogoutHandler)
		}
	})
	return r
}

// Authmiddleware rejects requests to non-exempt paths with 401 when they carry
// no credentials at all and 403 when the credentials do not name a user. The
// user is stored on the request context for handlers.
func (ac *AuthContext) Authmiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ac.Auth == nil || !RequireAuth(r.URL.Path, ac.ExcludedPaths) {
			next.ServeHTTP(w, r)
			return
		}

		_, hasHeader := ac.Auth.AuthorizationHeader(r)
		_, hasCookie := ac.Auth.SessionCookie(r)
		if !hasHeader && !hasCookie {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		u := ac.Auth.CurrentUser(r)
		if u == nil {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func (ac *AuthContext) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (ac *AuthContext) MeHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// CreateUser hashes the password and saves a user under a fresh ULID.
func (ac *AuthContext) CreateUser(ctx context.Context, email, pwd, firstName, lastName string) (sessions.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return sessions.User{}, ErrMissingEmail
	}
	if pwd == "" {
		return sessions.User{}, ErrMissingPassword
	}
	hashed, err := ac.Hasher.Hash(pwd)
	if err != nil {
		return sessions.User{}, err
	}
	u := sessions.User{
		UserId:         ulid.Make().String(),
		Email:          email,
		HashedPassword: hashed,
		FirstName:      firstName,
		LastName:       lastName,
	}
	if err := ac.Users.SaveUser(ctx, u); err != nil {
		return sessions.User{}, err
	}
	return u, nil
}

// Handles the registration of new users.
//
// The expected request to this endpoint is a JSON object with the form:
//
// { "email" : "VALUE", "password" : "PASSWORD", "first_name" : "OPTIONAL", "last_name" : "OPTIONAL" }
func (ac *AuthContext) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Wrong format")
		return
	}

	u, err := ac.CreateUser(r.Context(), body.Email, body.Password, body.FirstName, body.LastName)
	switch {
	case errors.Is(err, ErrMissingEmail), errors.Is(err, ErrMissingPassword):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, sessions.ErrUserAlreadyExists):
		writeError(w, http.StatusConflict, "email already registered")
		return
	case err != nil:
		ac.logger().ErrorContext(r.Context(), "failed to create user", "error", err)
		writeError(w, http.StatusInternalServerError, "Can't create User")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Handles session login. The request is a form with "email" and "password";
// on success the session cookie is set and the user is returned as JSON.
func (ac *AuthContext) LoginHandler(w http.ResponseWriter, r *http.Request) {
	sa, ok := ac.Auth.(SessionAuthenticator)
	if !ok {
		writeError(w, http.StatusNotImplemented, "session login is not enabled")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, ErrMissingEmail.Error())
		return
	}
	pwd := r.FormValue("password")
	if pwd == "" {
		writeError(w, http.StatusBadRequest, ErrMissingPassword.Error())
		return
	}

	users, err := ac.Users.SearchUsers(r.Context(), sessions.Filter{"email": email})
	if err != nil {
		ac.logger().WarnContext(r.Context(), "user search failed", "error", err)
	}
	if err != nil || len(users) == 0 {
		writeError(w, http.StatusNotFound, "no user found for this email")
		return
	}
	u := users[0]
	if !u.IsValidPassword(ac.Hasher, pwd) {
		writeError(w, http.StatusUnauthorized, "wrong password")
		return
	}

	sessionId, ok := sa.CreateSession(r.Context(), u.UserId)
	if !ok {
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	base := baseAuthOf(sa)
	http.SetCookie(w, sessions.NewCookie(base.CookieName, sessions.CookieValue(sessionId, base.Secret), ac.CookieTTL, ac.SecureCookies))
	writeJSON(w, http.StatusOK, u)
}

// Logs out a user by destroying the session named by the cookie and expiring the cookie.
func (ac *AuthContext) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	sa, ok := ac.Auth.(SessionAuthenticator)
	if !ok || !sa.DestroySession(r) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	http.SetCookie(w, sessions.ExpiredCookie(baseAuthOf(sa).CookieName, ac.SecureCookies))
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (ac *AuthContext) logger() *slog.Logger {
	if ac.Logger == nil {
		return slog.Default()
	}
	return ac.Logger
}

// baseAuthOf digs the cookie settings out of the known auth variants.
func baseAuthOf(a Authenticator) BaseAuth {
	switch v := a.(type) {
	case *SessionAuth:
		return v.BaseAuth
	case BaseAuth:
		return v
	default:
		return BaseAuth{}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
