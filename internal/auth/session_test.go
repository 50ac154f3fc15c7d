package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseSessionStore(t *testing.T, s SessionStore) {
	ctx := context.Background()

	_, err := s.Get(ctx, "admin")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.Set(ctx, "admin", "sid-1", time.Minute))
	require.NoError(t, s.Set(ctx, "user2", "sid-2", time.Minute))
	got, err := s.Get(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "sid-1", got)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Set(ctx, "admin", "sid-3", time.Minute))
	got, err = s.Get(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "sid-3", got, "a new login replaces the previous session")

	require.NoError(t, s.Delete(ctx, "admin"))
	require.NoError(t, s.Delete(ctx, "user2"))
	_, err = s.Get(ctx, "admin")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStore(t *testing.T) {
	exerciseSessionStore(t, NewMemorySessionStore())
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	s := NewMemorySessionStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "admin", "sid", 30*time.Minute))
	now = now.Add(29 * time.Minute)
	_, err := s.Get(ctx, "admin")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "admin")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// Runs only against a real Redis; set TEST_REDIS_ADDR (e.g. localhost:6379).
func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run real Redis test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	exerciseSessionStore(t, NewRedisSessionStore(rdb))
}
