//go:build integration
// +build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	store := NewRedis(client, "test-"+uuid.NewString())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStore_GetDel(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "state", `{"provider":"google"}`, time.Minute))

	got, err := store.GetDel(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, `{"provider":"google"}`, got)

	_, err = store.GetDel(ctx, "state")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", "v", 50*time.Millisecond))
	time.Sleep(150 * time.Millisecond)

	_, err := store.GetDel(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}
