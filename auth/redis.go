package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cameronmore/sessionauth/sessions"
)

var ErrRedisNotReady = errors.New("redis did not answer ping")

// ConnectRedis parses a redis:// URL and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrRedisNotReady, err)
	}
	return client, nil
}

// RedisSessionStore is a SessionRepository over Redis, for deployments where
// several processes share sessions. Each record is a JSON blob under
// "<prefix>session:<id>"; a set per user indexes that user's session ids.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	// ttl, when positive, lets Redis drop records on its own. Lifetime checks
	// still happen at lookup.
	ttl time.Duration
	now func() time.Time
}

func NewRedisSessionStore(client *redis.Client, prefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *RedisSessionStore) key(sessionId string) string {
	return r.prefix + "session:" + sessionId
}

func (r *RedisSessionStore) userKey(userId string) string {
	return r.prefix + "user_sessions:" + userId
}

func (r *RedisSessionStore) SaveSession(ctx context.Context, s sessions.Session) (sessions.Session, error) {
	if s.Id == "" || s.UserId == "" {
		return sessions.Session{}, sessions.ErrInvalidSession
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now()
	}
	s.CreatedAt = s.CreatedAt.UTC()

	data, err := json.Marshal(s)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("session: failed to marshal: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(s.Id.String()), data, r.ttl)
		pipe.SAdd(ctx, r.userKey(s.UserId), s.Id.String())
		return nil
	})
	if err != nil {
		return sessions.Session{}, err
	}
	return s, nil
}

// SearchSessions supports session_id and user_id filters; at least one is required.
func (r *RedisSessionStore) SearchSessions(ctx context.Context, f sessions.Filter) ([]sessions.Session, error) {
	for k := range f {
		if !slices.Contains(sessionColumns, k) {
			return nil, fmt.Errorf("%w: %q", sessions.ErrUnsupportedFilter, k)
		}
	}

	var ids []string
	if id, ok := f["session_id"]; ok {
		ids = []string{id}
	} else if userId, ok := f["user_id"]; ok {
		members, err := r.client.SMembers(ctx, r.userKey(userId)).Result()
		if err != nil {
			return nil, err
		}
		ids = members
	} else {
		return nil, fmt.Errorf("%w: session_id or user_id is required", sessions.ErrUnsupportedFilter)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var found []sessions.Session
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired or removed since the index was read
			continue
		}
		var s sessions.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
		}
		if userId, ok := f["user_id"]; ok && s.UserId != userId {
			continue
		}
		found = append(found, s)
	}
	slices.SortFunc(found, func(a, b sessions.Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return found, nil
}

func (r *RedisSessionStore) RemoveSession(ctx context.Context, s sessions.Session) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.key(s.Id.String()))
		pipe.SRem(ctx, r.userKey(s.UserId), s.Id.String())
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return sessions.ErrSessionNotFound
	}
	return nil
}

var _ sessions.SessionRepository = (*RedisSessionStore)(nil)
