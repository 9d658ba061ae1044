package sessionstest

import (
	"context"
	"sync"
	"time"

	"github.com/cameronmore/sessionauth/sessions"
)

// Repository is an in-memory SessionRepository with switchable failures.
// Unlike the SQL stores it accepts duplicate session ids.
type Repository struct {
	mu      sync.Mutex
	records []sessions.Session

	// Now stamps created_at on save. Defaults to time.Now.
	Now func() time.Time

	SaveErr   error
	SearchErr error
	RemoveErr error

	Searches int
}

func NewRepository() *Repository {
	return &Repository{Now: time.Now}
}

func (r *Repository) SaveSession(ctx context.Context, s sessions.Session) (sessions.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.SaveErr != nil {
		return sessions.Session{}, r.SaveErr
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.Now()
	}
	r.records = append(r.records, s)
	return s, nil
}

func (r *Repository) SearchSessions(ctx context.Context, f sessions.Filter) ([]sessions.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Searches++
	if r.SearchErr != nil {
		return nil, r.SearchErr
	}
	for k := range f {
		if k != "session_id" && k != "user_id" {
			return nil, sessions.ErrUnsupportedFilter
		}
	}

	var out []sessions.Session
	for _, s := range r.records {
		if v, ok := f["session_id"]; ok && v != s.Id.String() {
			continue
		}
		if v, ok := f["user_id"]; ok && v != s.UserId {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// RemoveSession drops the first record equal to s.
func (r *Repository) RemoveSession(ctx context.Context, s sessions.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.RemoveErr != nil {
		return r.RemoveErr
	}
	for i, rec := range r.records {
		if rec.Id == s.Id && rec.UserId == s.UserId && rec.CreatedAt.Equal(s.CreatedAt) {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return sessions.ErrSessionNotFound
}

// Insert appends a raw record, bypassing created_at stamping.
func (r *Repository) Insert(s sessions.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, s)
}

func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
