package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cameronmore/sessionauth/auth"
	"github.com/cameronmore/sessionauth/password"
	"github.com/cameronmore/sessionauth/sessions"
	"github.com/cameronmore/sessionauth/sessions/sessionstest"
)

var excludedPaths = []string{
	"/api/v1/status/",
	"/api/v1/unauthorized/",
	"/api/v1/forbidden/",
	"/api/v1/auth_session/login/",
}

type testApp struct {
	ac     *auth.AuthContext
	router http.Handler
	dir    *sessionstest.Directory
}

func newTestApp(t *testing.T, secret string) *testApp {
	t.Helper()
	dir := sessionstest.NewDirectory()
	sa := auth.NewSessionAuth(auth.NewBaseAuth(cookieName, secret), sessions.NewMemoryStore(), dir)
	ac := auth.NewAuthContext(sa, dir, password.NewBcrypt(bcrypt.MinCost), excludedPaths)
	return &testApp{ac: ac, router: ac.Router(nil), dir: dir}
}

func (a *testApp) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, r)
	return w
}

func loginRequest(email, pwd string) *http.Request {
	form := url.Values{}
	if email != "" {
		form.Set("email", email)
	}
	if pwd != "" {
		form.Set("password", pwd)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth_session/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", cookieName)
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStatusIsExempt(t *testing.T) {
	app := newTestApp(t, "")
	w := app.do(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", decodeBody(t, w)["status"])
}

func TestAuthmiddleware(t *testing.T) {
	app := newTestApp(t, "")

	t.Run("no credentials", func(t *testing.T) {
		w := app.do(httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("credentials without a user", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		r.AddCookie(&http.Cookie{Name: cookieName, Value: "not-a-session"})
		w := app.do(r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("authorization header alone", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		r.Header.Set("Authorization", "Bearer x")
		w := app.do(r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unauthorized and forbidden endpoints", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, app.do(httptest.NewRequest(http.MethodGet, "/api/v1/unauthorized", nil)).Code)
		assert.Equal(t, http.StatusForbidden, app.do(httptest.NewRequest(http.MethodGet, "/api/v1/forbidden", nil)).Code)
	})
}

func TestLogin(t *testing.T) {
	app := newTestApp(t, "")
	_, err := app.ac.CreateUser(context.Background(), "bob@example.com", "hunter2", "Bob", "Dylan")
	require.NoError(t, err)

	tests := []struct {
		name  string
		email string
		pwd   string
		code  int
		msg   string
	}{
		{"missing email", "", "hunter2", http.StatusBadRequest, "email missing"},
		{"missing password", "bob@example.com", "", http.StatusBadRequest, "password missing"},
		{"unknown email", "alice@example.com", "hunter2", http.StatusNotFound, "no user found for this email"},
		{"wrong password", "bob@example.com", "nope", http.StatusUnauthorized, "wrong password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(loginRequest(tt.email, tt.pwd))
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.msg, decodeBody(t, w)["error"])
		})
	}

	t.Run("success", func(t *testing.T) {
		w := app.do(loginRequest("bob@example.com", "hunter2"))
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "bob@example.com", body["email"])
		assert.NotContains(t, body, "hashed_password")

		c := sessionCookie(t, w)
		assert.NotEmpty(t, c.Value)
		assert.True(t, c.HttpOnly)
	})
}

func TestLoginMeLogout(t *testing.T) {
	for _, secret := range []string{"", "s3cret"} {
		t.Run("secret="+secret, func(t *testing.T) {
			app := newTestApp(t, secret)
			_, err := app.ac.CreateUser(context.Background(), "bob@example.com", "hunter2", "Bob", "")
			require.NoError(t, err)

			w := app.do(loginRequest("bob@example.com", "hunter2"))
			require.Equal(t, http.StatusOK, w.Code)
			cookie := sessionCookie(t, w)

			me := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			me.AddCookie(cookie)
			w = app.do(me)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "bob@example.com", decodeBody(t, w)["email"])

			logout := httptest.NewRequest(http.MethodDelete, "/api/v1/auth_session/logout", nil)
			logout.AddCookie(cookie)
			w = app.do(logout)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, -1, sessionCookie(t, w).MaxAge)

			again := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			again.AddCookie(cookie)
			assert.Equal(t, http.StatusForbidden, app.do(again).Code)
		})
	}
}

func TestRegister(t *testing.T) {
	app := newTestApp(t, "")
	_, err := app.ac.CreateUser(context.Background(), "admin@example.com", "root", "", "")
	require.NoError(t, err)

	w := app.do(loginRequest("admin@example.com", "root"))
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	register := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		r.AddCookie(cookie)
		return app.do(r)
	}

	w = register(`{"email":"carol@example.com","password":"pw","first_name":"Carol"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "Carol", body["first_name"])

	found, err := app.dir.SearchUsers(context.Background(), sessions.Filter{"email": "carol@example.com"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.NotEqual(t, "pw", found[0].HashedPassword)

	assert.Equal(t, http.StatusConflict, register(`{"email":"carol@example.com","password":"pw"}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`{"password":"pw"}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`{"email":"dave@example.com"}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`not json`).Code)
}

func TestLogoutWithoutSession(t *testing.T) {
	app := newTestApp(t, "")
	_, err := app.ac.CreateUser(context.Background(), "bob@example.com", "hunter2", "", "")
	require.NoError(t, err)

	w := app.do(loginRequest("bob@example.com", "hunter2"))
	cookie := sessionCookie(t, w)

	logout := httptest.NewRequest(http.MethodDelete, "/api/v1/auth_session/logout", nil)
	logout.AddCookie(cookie)
	require.Equal(t, http.StatusOK, app.do(logout).Code)

	// The middleware already rejects the stale cookie before the handler runs.
	stale := httptest.NewRequest(http.MethodDelete, "/api/v1/auth_session/logout", nil)
	stale.AddCookie(cookie)
	assert.Equal(t, http.StatusForbidden, app.do(stale).Code)
}

func TestLogoutHandler_NoSession(t *testing.T) {
	app := newTestApp(t, "")
	w := httptest.NewRecorder()
	app.ac.LogoutHandler(w, httptest.NewRequest(http.MethodDelete, "/api/v1/auth_session/logout", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_BaseAuthHasNoSessionRoutes(t *testing.T) {
	dir := sessionstest.NewDirectory()
	ac := auth.NewAuthContext(auth.NewBaseAuth(cookieName, ""), dir, password.NewBcrypt(bcrypt.MinCost), excludedPaths)
	router := ac.Router(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest("bob@example.com", "pw"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	app := newTestApp(t, "")
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router := app.ac.Router(metrics)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
