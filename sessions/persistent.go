package sessions

import (
	"context"
	"errors"
	"time"
)

// PersistentStore keeps session records in a SessionRepository so several
// processes can share them. Every lookup reads the repository; nothing is cached.
type PersistentStore struct {
	repo   SessionRepository
	window Window
	opts   options
}

func NewPersistentStore(repo SessionRepository, d time.Duration, opts ...Option) *PersistentStore {
	return &PersistentStore{
		repo:   repo,
		window: Window{Duration: d},
		opts:   applyOptions(opts),
	}
}

func (p *PersistentStore) Window() Window {
	return p.window
}

// CreateSession mints an id and saves {session_id, user_id}; the repository stamps created_at.
func (p *PersistentStore) CreateSession(ctx context.Context, userId string) (string, error) {
	if userId == "" {
		return "", ErrInvalidUserId
	}
	id := NewSessionId()
	if _, err := p.repo.SaveSession(ctx, Session{Id: SessionId(id), UserId: userId}); err != nil {
		p.opts.logger.WarnContext(ctx, "failed to persist session", "user_id", userId, "error", err)
		return "", errors.Join(ErrStorageUnavailable, err)
	}
	return id, nil
}

// UserIdForSessionId uses the first record matching sessionId.
func (p *PersistentStore) UserIdForSessionId(ctx context.Context, sessionId string) (string, error) {
	s, err := p.first(ctx, sessionId)
	if err != nil {
		return "", err
	}
	if err := p.window.Check(s, p.opts.now()); err != nil {
		return "", err
	}
	return s.UserId, nil
}

// DestroySession removes the first record matching sessionId, expired or not.
// Duplicates, if a repository allows them, are left behind.
func (p *PersistentStore) DestroySession(ctx context.Context, sessionId string) error {
	s, err := p.first(ctx, sessionId)
	if err != nil {
		return err
	}
	if err := p.repo.RemoveSession(ctx, s); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return err
		}
		p.opts.logger.WarnContext(ctx, "failed to remove session", "error", err)
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func (p *PersistentStore) first(ctx context.Context, sessionId string) (Session, error) {
	if sessionId == "" {
		return Session{}, ErrSessionNotFound
	}
	records, err := p.repo.SearchSessions(ctx, Filter{"session_id": sessionId})
	if err != nil {
		p.opts.logger.WarnContext(ctx, "failed to search sessions", "error", err)
		return Session{}, errors.Join(ErrStorageUnavailable, err)
	}
	if len(records) == 0 {
		return Session{}, ErrSessionNotFound
	}
	return records[0], nil
}
