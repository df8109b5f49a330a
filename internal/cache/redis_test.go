package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCacheWithClient(client, DefaultCacheConfig())
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestNewRedisCacheWithConfig(t *testing.T) {
	mr := miniredis.RunT(t)

	config := DefaultRedisConfig()
	config.Addr = mr.Addr()

	cache, err := NewRedisCacheWithConfig(context.Background(), config)
	require.NoError(t, err)
	defer cache.Close()

	c, err := New(context.Background(), BackendRedis, config)
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)
	c.Close()
}

func TestNewRedisCacheWithConfig_ConnectionError(t *testing.T) {
	config := DefaultRedisConfig()
	config.Addr = "localhost:99999" // Invalid port

	_, err := NewRedisCacheWithConfig(context.Background(), config)
	assert.Error(t, err)

	c, err := New(context.Background(), BackendRedis, config)
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "test-key", []byte("test-value"), time.Minute))

	retrieved, err := cache.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("test-value"), retrieved)

	// Keys are stored under the prefix
	assert.True(t, mr.Exists("schemadiff:test-key"))
}

func TestRedisCache_GetMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	_, err := cache.Get(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, IsCacheMiss(err))
}

func TestRedisCache_TTL(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, cache.Set(ctx, "default", []byte("v"), 0))
	require.NoError(t, cache.Set(ctx, "forever", []byte("v"), -1))

	assert.Equal(t, DefaultCacheConfig().DefaultTTL, mr.TTL("schemadiff:default"))
	assert.Zero(t, mr.TTL("schemadiff:forever"))

	mr.FastForward(2 * time.Second)

	_, err := cache.Get(ctx, "short")
	assert.True(t, IsCacheMiss(err))

	exists, err := cache.Exists(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisCache_DeleteAndClear(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, mr.Set("other:c", "3"))

	require.NoError(t, cache.Delete(ctx, "a"))
	exists, err := cache.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, cache.Clear(ctx))
	exists, err = cache.Exists(ctx, "b")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.True(t, mr.Exists("other:c"))
}
