package sessionstest

import (
	"context"
	"sync"

	"github.com/cameronmore/sessionauth/sessions"
)

var userFields = map[string]func(u *sessions.User) *string{
	"user_id":         func(u *sessions.User) *string { return &u.UserId },
	"email":           func(u *sessions.User) *string { return &u.Email },
	"hashed_password": func(u *sessions.User) *string { return &u.HashedPassword },
	"first_name":      func(u *sessions.User) *string { return &u.FirstName },
	"last_name":       func(u *sessions.User) *string { return &u.LastName },
	"session_id":      func(u *sessions.User) *string { return &u.SessionId },
	"reset_token":     func(u *sessions.User) *string { return &u.ResetToken },
}

// Directory is an in-memory UserDirectory.
type Directory struct {
	mu    sync.Mutex
	users map[string]sessions.User

	LoadErr error
}

func NewDirectory(users ...sessions.User) *Directory {
	d := &Directory{users: make(map[string]sessions.User)}
	for _, u := range users {
		d.users[u.UserId] = u
	}
	return d
}

func (d *Directory) SaveUser(ctx context.Context, u sessions.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u.UserId == "" {
		return sessions.ErrInvalidUserId
	}
	if _, ok := d.users[u.UserId]; ok {
		return sessions.ErrUserAlreadyExists
	}
	for _, existing := range d.users {
		if u.Email != "" && existing.Email == u.Email {
			return sessions.ErrUserAlreadyExists
		}
	}
	d.users[u.UserId] = u
	return nil
}

func (d *Directory) LoadUserByUserId(ctx context.Context, id string) (sessions.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.LoadErr != nil {
		return sessions.User{}, d.LoadErr
	}
	u, ok := d.users[id]
	if !ok {
		return sessions.User{}, sessions.ErrUserNotFound
	}
	return u, nil
}

func (d *Directory) SearchUsers(ctx context.Context, f sessions.Filter) ([]sessions.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k := range f {
		if _, ok := userFields[k]; !ok {
			return nil, sessions.ErrUnsupportedFilter
		}
	}
	var out []sessions.User
	for _, u := range d.users {
		match := true
		for k, v := range f {
			if *userFields[k](&u) != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *Directory) UpdateUser(ctx context.Context, id string, fields sessions.Filter) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k := range fields {
		if _, ok := userFields[k]; !ok || k == "user_id" {
			return sessions.ErrUnsupportedFilter
		}
	}
	u, ok := d.users[id]
	if !ok {
		return sessions.ErrUserNotFound
	}
	for k, v := range fields {
		*userFields[k](&u) = v
	}
	d.users[id] = u
	return nil
}

func (d *Directory) RemoveUser(ctx context.Context, u sessions.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[u.UserId]; !ok {
		return sessions.ErrUserNotFound
	}
	delete(d.users, u.UserId)
	return nil
}
