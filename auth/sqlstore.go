package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cameronmore/sessionauth/sessions"
)

// userColumns lists the user fields that may appear in a filter or an update.
var userColumns = []string{"user_id", "email", "hashed_password", "first_name", "last_name", "session_id", "reset_token"}

var sessionColumns = []string{"session_id", "user_id"}

const selectUser = `SELECT user_id, email, hashed_password, first_name, last_name, session_id, reset_token FROM users`

const selectSession = `SELECT session_id, user_id, created_at FROM sessions`

// sqlStore holds the queries shared by the SQLite and Postgres stores. They
// differ only in bind-parameter syntax and in how a unique violation is reported.
type sqlStore struct {
	DB          *sql.DB
	bind        func(n int) string
	isDuplicate func(err error) bool
	now         func() time.Time
}

// where renders "WHERE a = ? AND b = ?" for f, with keys in a stable order.
func (s *sqlStore) where(f sessions.Filter, allowed []string, offset int) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		if !slices.Contains(allowed, k) {
			return "", nil, fmt.Errorf("%w: %q", sessions.ErrUnsupportedFilter, k)
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	clauses := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		clauses[i] = k + " = " + s.bind(offset+i+1)
		args[i] = f[k]
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (s *sqlStore) SaveUser(ctx context.Context, u sessions.User) error {
	if u.UserId == "" {
		return sessions.ErrInvalidUserId
	}
	query := fmt.Sprintf(`
		INSERT INTO users (user_id, email, hashed_password, first_name, last_name, session_id, reset_token)
		VALUES (%s, %s, %s, %s, %s, %s, %s)
		`, s.bind(1), s.bind(2), s.bind(3), s.bind(4), s.bind(5), s.bind(6), s.bind(7))
	_, err := s.DB.ExecContext(ctx, query, u.UserId, u.Email, u.HashedPassword, u.FirstName, u.LastName, u.SessionId, u.ResetToken)
	if err != nil {
		if s.isDuplicate(err) {
			return sessions.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (s *sqlStore) LoadUserByUserId(ctx context.Context, id string) (sessions.User, error) {
	var u sessions.User
	row := s.DB.QueryRowContext(ctx, selectUser+" WHERE user_id = "+s.bind(1), id)
	err := row.Scan(&u.UserId, &u.Email, &u.HashedPassword, &u.FirstName, &u.LastName, &u.SessionId, &u.ResetToken)
	if errors.Is(err, sql.ErrNoRows) {
		return u, sessions.ErrUserNotFound
	} else if err != nil {
		return u, err
	}
	return u, nil
}

func (s *sqlStore) SearchUsers(ctx context.Context, f sessions.Filter) ([]sessions.User, error) {
	where, args, err := s.where(f, userColumns, 0)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, selectUser+where+" ORDER BY user_id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []sessions.User
	for rows.Next() {
		var u sessions.User
		if err := rows.Scan(&u.UserId, &u.Email, &u.HashedPassword, &u.FirstName, &u.LastName, &u.SessionId, &u.ResetToken); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser sets the given columns on one user. user_id itself cannot change.
func (s *sqlStore) UpdateUser(ctx context.Context, id string, fields sessions.Filter) error {
	if _, ok := fields["user_id"]; ok {
		return fmt.Errorf("%w: %q", sessions.ErrUnsupportedFilter, "user_id")
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !slices.Contains(userColumns, k) {
			return fmt.Errorf("%w: %q", sessions.ErrUnsupportedFilter, k)
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		_, err := s.LoadUserByUserId(ctx, id)
		return err
	}
	slices.Sort(keys)

	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		sets[i] = k + " = " + s.bind(i+1)
		args = append(args, fields[k])
	}
	args = append(args, id)
	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE user_id = " + s.bind(len(keys)+1)

	result, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		if s.isDuplicate(err) {
			return sessions.ErrUserAlreadyExists
		}
		return err
	}
	return expectAffected(result, sessions.ErrUserNotFound)
}

func (s *sqlStore) RemoveUser(ctx context.Context, u sessions.User) error {
	result, err := s.DB.ExecContext(ctx, "DELETE FROM users WHERE user_id = "+s.bind(1), u.UserId)
	if err != nil {
		return err
	}
	return expectAffected(result, sessions.ErrUserNotFound)
}

// SaveSession stores created_at as unix nanoseconds, so it reads back unchanged.
func (s *sqlStore) SaveSession(ctx context.Context, session sessions.Session) (sessions.Session, error) {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}
	session.CreatedAt = time.Unix(0, session.CreatedAt.UnixNano())

	query := fmt.Sprintf(`
		INSERT INTO sessions (session_id, user_id, created_at)
		VALUES (%s, %s, %s)
		`, s.bind(1), s.bind(2), s.bind(3))
	_, err := s.DB.ExecContext(ctx, query, session.Id.String(), session.UserId, session.CreatedAt.UnixNano())
	if err != nil {
		return sessions.Session{}, err
	}
	return session, nil
}

func (s *sqlStore) SearchSessions(ctx context.Context, f sessions.Filter) ([]sessions.Session, error) {
	where, args, err := s.where(f, sessionColumns, 0)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, selectSession+where+" ORDER BY created_at, session_id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []sessions.Session
	for rows.Next() {
		var (
			id            string
			session       sessions.Session
			createdAtNano int64
		)
		if err := rows.Scan(&id, &session.UserId, &createdAtNano); err != nil {
			return nil, err
		}
		session.Id = sessions.SessionIdFromString(id)
		session.CreatedAt = time.Unix(0, createdAtNano)
		found = append(found, session)
	}
	return found, rows.Err()
}

func (s *sqlStore) RemoveSession(ctx context.Context, session sessions.Session) error {
	result, err := s.DB.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = "+s.bind(1), session.Id.String())
	if err != nil {
		return err
	}
	return expectAffected(result, sessions.ErrSessionNotFound)
}

func expectAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
