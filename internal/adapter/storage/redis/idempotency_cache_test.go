package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestIdempotencyCache_GetMiss(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewIdempotencyCache(client)

	raw, err := cache.Get(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestIdempotencyCache_SetThenGet(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	payload := []byte(`{"id":"abc","amount":"10"}`)
	require.NoError(t, cache.Set(ctx, "key-1", payload, time.Hour))

	raw, err := cache.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, payload, raw)

	// Stored under the namespaced key with a TTL.
	assert.True(t, mr.Exists("idempotency:key-1"))
	assert.Greater(t, mr.TTL("idempotency:key-1"), time.Duration(0))
}

func TestIdempotencyCache_Expiry(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key-1", []byte("x"), time.Minute))
	mr.FastForward(2 * time.Minute)

	raw, err := cache.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, raw)
}
