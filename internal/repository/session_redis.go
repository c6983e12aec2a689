package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/polytech/coursedesk/internal/config"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps sessions as JSON strings that expire with the session.
type RedisSessionStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisSessionStore creates a RedisSessionStore.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, now: time.Now}
}

// Save writes the session with a TTL matching its expiry.
func (r *RedisSessionStore) Save(ctx context.Context, s *session.Session) error {
	ttl := s.TTL(r.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := r.rdb.Set(ctx, config.CacheKey.SessionKey(s.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get loads a session; a missing key maps to session.ErrNotFound.
func (r *RedisSessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, config.CacheKey.SessionKey(id)).Err()
}
