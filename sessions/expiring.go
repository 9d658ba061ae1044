package sessions

import (
	"context"
	"time"
)

// Window is the lifetime rule shared by the expiring and persistent stores.
// A Duration <= 0 means sessions never expire.
type Window struct {
	Duration time.Duration
}

// Expiry is the last instant at which a session created at createdAt is still valid.
func (w Window) Expiry(createdAt time.Time) time.Time {
	return createdAt.Add(w.Duration)
}

// Check reports whether s is still live at now. The expiry instant itself is valid.
func (w Window) Check(s Session, now time.Time) error {
	if w.Duration <= 0 {
		return nil
	}
	if s.CreatedAt.IsZero() {
		return ErrInvalidSession
	}
	if w.Expiry(s.CreatedAt).Before(now) {
		return ErrSessionExpired
	}
	return nil
}

// ExpiringStore adds a creation time to every MemoryStore record and rejects
// records older than its Window. Expired records are not removed.
type ExpiringStore struct {
	base   *MemoryStore
	window Window
	opts   options
}

func NewExpiringStore(base *MemoryStore, d time.Duration, opts ...Option) *ExpiringStore {
	if base == nil {
		base = NewMemoryStore()
	}
	return &ExpiringStore{
		base:   base,
		window: Window{Duration: d},
		opts:   applyOptions(opts),
	}
}

func (e *ExpiringStore) Window() Window {
	return e.window
}

func (e *ExpiringStore) CreateSession(ctx context.Context, userId string) (string, error) {
	id, err := e.base.CreateSession(ctx, userId)
	if err != nil {
		return "", err
	}
	if !e.base.replace(Session{Id: SessionId(id), UserId: userId, CreatedAt: e.opts.now()}) {
		return "", ErrSessionNotFound
	}
	return id, nil
}

func (e *ExpiringStore) UserIdForSessionId(ctx context.Context, sessionId string) (string, error) {
	s, ok := e.base.Session(sessionId)
	if !ok {
		return "", ErrSessionNotFound
	}
	if err := e.window.Check(s, e.opts.now()); err != nil {
		return "", err
	}
	return s.UserId, nil
}

// DestroySession only removes sessions that still resolve; an expired session is
// reported as such and left in place.
func (e *ExpiringStore) DestroySession(ctx context.Context, sessionId string) error {
	if _, err := e.UserIdForSessionId(ctx, sessionId); err != nil {
		return err
	}
	return e.base.DestroySession(ctx, sessionId)
}
