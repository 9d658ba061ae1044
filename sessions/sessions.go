package sessions

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSessionId returns a random (v4) uuid. uuid.New reads from crypto/rand.
func NewSessionId() string {
	uid := uuid.New()
	return uid.String()
}

// SignSessionId appends an HMAC-SHA256 signature to a session id: "<id>.<sig>".
func SignSessionId(sessionId string, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionId))
	signature := mac.Sum(nil)
	return fmt.Sprintf("%s.%s", sessionId, base64.URLEncoding.EncodeToString(signature))
}

// verifies a session signature from a given signed string
func VerifySessionId(signedSessionId string, secret string) (string, error) {
	sessionId, encodedSignature, err := splitSignedSessionId(signedSessionId)
	if err != nil {
		return "", err
	}
	decodedSignature, err := base64.URLEncoding.DecodeString(encodedSignature)
	if err != nil {
		return "", ErrInvalidSessionSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionId))
	expectedSignature := mac.Sum(nil)

	if hmac.Equal(decodedSignature, expectedSignature) {
		return sessionId, nil
	}

	return "", ErrInvalidSessionSignature
}

func splitSignedSessionId(signedSessionId string) (string, string, error) {
	parts := strings.Split(signedSessionId, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", ErrSignedSessionIdIncorrectLength
	}
	return parts[0], parts[1], nil
}

// CookieValue is what goes on the wire for a session id: the id itself, or the
// signed id when a secret is configured.
func CookieValue(sessionId string, secret string) string {
	if secret == "" {
		return sessionId
	}
	return SignSessionId(sessionId, secret)
}

// SessionIdFromCookie reads the named cookie and, when secret is set, verifies
// its signature. The boolean is false for a nil request, a missing cookie or a
// bad signature.
func SessionIdFromCookie(r *http.Request, name string, secret string) (string, bool) {
	if r == nil {
		return "", false
	}
	requestCookie, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	if secret == "" {
		return requestCookie.Value, true
	}
	verifiedSessionId, err := VerifySessionId(requestCookie.Value, secret)
	if err != nil {
		return "", false
	}
	return verifiedSessionId, true
}

// NewCookie builds the session cookie. A zero d leaves the cookie a browser-session cookie.
func NewCookie(name string, value string, d time.Duration, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if d > 0 {
		c.Expires = time.Now().Add(d)
		c.MaxAge = int(d.Seconds())
	}
	return c
}

// ExpiredCookie clears the session cookie on the client.
func ExpiredCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-24 * time.Minute),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
