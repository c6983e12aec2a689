package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/polytech/coursedesk/internal/config"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/repository"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *repository.RedisSessionStore) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, repository.NewRedisSessionStore(rdb)
}

func TestRedisSessionStore_SaveGetDelete(t *testing.T) {
	mr, store := newRedisStore(t)
	ctx := context.Background()

	now := time.Now()
	s := session.New(model.AuthResponse{AccessToken: "up", UserID: "42", Role: model.RoleInstructor}, now, now.Add(time.Hour))
	require.NoError(t, store.Save(ctx, s))

	key := config.CacheKey.SessionKey(s.ID)
	assert.True(t, mr.Exists(key))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(key).Seconds(), 2)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, got.UserID)
	assert.Equal(t, s.Role, got.Role)
	assert.Equal(t, "up", got.AccessToken)
	assert.True(t, got.Authenticated())

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, s.ID))
}

func TestRedisSessionStore_ExpiresWithSession(t *testing.T) {
	mr, store := newRedisStore(t)
	ctx := context.Background()

	now := time.Now()
	s := session.New(model.AuthResponse{AccessToken: "up", UserID: "1", Role: model.RoleStudent}, now, now.Add(time.Minute))
	require.NoError(t, store.Save(ctx, s))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRedisSessionStore_RejectsExpired(t *testing.T) {
	_, store := newRedisStore(t)
	past := time.Now().Add(-2 * time.Hour)
	s := session.New(model.AuthResponse{AccessToken: "up", UserID: "1", Role: model.RoleStudent}, past, past.Add(time.Hour))

	assert.Error(t, store.Save(context.Background(), s))
}
