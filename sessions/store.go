package sessions

import (
	"context"
	"time"
)

type User struct {
	UserId         string `json:"id"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	SessionId      string `json:"-"`
	ResetToken     string `json:"-"`
}

type SessionId string

func SessionIdFromString(s string) SessionId {
	return SessionId(s)
}

func (id SessionId) String() string {
	return string(id)
}

// Session is a single server-side session record. CreatedAt is zero for records
// written by a store that does not track expiry.
type Session struct {
	Id        SessionId `json:"session_id"`
	UserId    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter is an equality filter over record fields, keyed by column name
// ("session_id", "user_id", "email", ...).
type Filter map[string]string

// Resolver is the capability shared by every session store variant.
type Resolver interface {
	// CreateSession mints a new session for userId and returns its id.
	CreateSession(ctx context.Context, userId string) (string, error)
	// UserIdForSessionId returns the user owning a live session.
	UserIdForSessionId(ctx context.Context, sessionId string) (string, error)
	// DestroySession removes a live session.
	DestroySession(ctx context.Context, sessionId string) error
}

// UserDirectory resolves and persists user records.
type UserDirectory interface {
	SaveUser(ctx context.Context, u User) error
	LoadUserByUserId(ctx context.Context, id string) (User, error)
	SearchUsers(ctx context.Context, f Filter) ([]User, error)
	UpdateUser(ctx context.Context, id string, fields Filter) error
	RemoveUser(ctx context.Context, u User) error
}

// SessionRepository is durable storage for session records, used by PersistentStore.
type SessionRepository interface {
	// SaveSession stores s, stamping CreatedAt when it is zero, and returns the stored record.
	SaveSession(ctx context.Context, s Session) (Session, error)
	SearchSessions(ctx context.Context, f Filter) ([]Session, error)
	RemoveSession(ctx context.Context, s Session) error
}

// AuthStore is a backend able to hold both users and sessions, like the SQL stores.
type AuthStore interface {
	UserDirectory
	SessionRepository
}

var (
	_ Resolver = (*MemoryStore)(nil)
	_ Resolver = (*ExpiringStore)(nil)
	_ Resolver = (*PersistentStore)(nil)
)
