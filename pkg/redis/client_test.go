package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocart/storefront/pkg/config"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewFromRaw(raw), mr
}

func TestHashLifecycle(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	key := client.CartKey("consumer-1")

	require.NoError(t, client.HSet(ctx, key, "p1", `{"quantity":1}`))
	require.NoError(t, client.HSet(ctx, key, "p2", `{"quantity":2}`))

	fields, err := client.HGetAll(ctx, key)
	require.NoError(t, err)
	assert.Len(t, fields, 2)
	assert.Equal(t, `{"quantity":2}`, fields["p2"])

	require.NoError(t, client.HDel(ctx, key, "p1"))
	assert.Equal(t, "", mr.HGet(key, "p1"))

	require.NoError(t, client.Del(ctx, key))
	fields, err = client.HGetAll(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestSetNXOnlyOnce(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	key := client.LockKey("checkout", "consumer-1")

	ok, err := client.SetNX(ctx, key, "token", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, key, "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = client.SetNX(ctx, key, "after-expiry", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetMissingKeyIsNil(t *testing.T) {
	client, _ := setupTestRedis(t)
	_, err := client.Get(context.Background(), client.ProfileKey("nobody"))
	assert.True(t, IsNil(err))
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "gc:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "gc:cart:c-1", client.CartKey("c-1"))
	assert.Equal(t, "gc:profile:c-1", client.ProfileKey(" c-1 "))
	assert.Equal(t, "gc:lock:checkout:c-1", client.LockKey("checkout", "c-1"))
	assert.Equal(t, "gc:cart", client.CartKey(""))
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	assert.Error(t, client.Ping(ctx))
	assert.Error(t, client.HSet(ctx, "k", "f", "v"))
	_, err := client.HGetAll(ctx, "k")
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, time.Second, opts.DialTimeout)
}

func TestReleaseLockChecksToken(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	key := client.LockKey("checkout", "consumer-1")

	ok, err := client.SetNX(ctx, key, "holder", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := client.ReleaseLock(ctx, key, "intruder")
	require.NoError(t, err)
	assert.False(t, released)
	assert.True(t, mr.Exists(key))

	released, err = client.ReleaseLock(ctx, key, "holder")
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, mr.Exists(key))
}
