package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/teamgate/internal/config"
)

type testStruct struct {
	Name  string
	Count int
}

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := testStruct{Name: "team_member_count", Count: 30}
	err := cache.Set("counts:members", expected, time.Minute)
	require.NoError(t, err)

	var actual testStruct
	found, err := cache.Get("counts:members", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out testStruct
	found, err := cache.Get("no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("k", testStruct{}, time.Minute))
	require.NoError(t, cache.Invalidate("k"))

	var out testStruct
	found, err := cache.Get("k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAcquireLock_SecondAttemptFails(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	ok, err := cache.AcquireLock(ctx, PassLockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.AcquireLock(ctx, PassLockKey, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.ReleaseLock(ctx, PassLockKey))

	ok, err = cache.AcquireLock(ctx, PassLockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
