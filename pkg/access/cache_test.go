package access

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-app/vellum/pkg/roles"
)

func editorResolution() Resolution {
	return Resolution{Role: roles.DocumentEditor, Source: SourceGrant}
}

func TestCacheLocal(t *testing.T) {
	ctx := context.Background()

	cache, err := NewCache(16, time.Minute, nil)
	require.NoError(t, err)

	_, ok := cache.Get(ctx, 1, 100)
	assert.False(t, ok)

	cache.Put(ctx, 1, 100, editorResolution())

	res, ok := cache.Get(ctx, 1, 100)
	require.True(t, ok)
	assert.Equal(t, editorResolution(), res)

	// keys are per (user, document)
	_, ok = cache.Get(ctx, 1, 101)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, 2, 100)
	assert.False(t, ok)
}

func TestCacheTTL(t *testing.T) {
	ctx := context.Background()

	cache, err := NewCache(16, time.Millisecond, nil)
	require.NoError(t, err)

	cache.Put(ctx, 1, 100, editorResolution())
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get(ctx, 1, 100)
	assert.False(t, ok)
}

func TestCacheInvalidateDocumentUser(t *testing.T) {
	ctx := context.Background()

	cache, err := NewCache(16, time.Minute, nil)
	require.NoError(t, err)

	cache.Put(ctx, 1, 100, editorResolution())
	cache.Put(ctx, 1, 101, editorResolution())

	cache.InvalidateDocumentUser(ctx, 1, 100)

	_, ok := cache.Get(ctx, 1, 100)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, 1, 101)
	assert.True(t, ok, "other documents stay cached")
}

func TestCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()

	cache, err := NewCache(16, time.Minute, nil)
	require.NoError(t, err)

	cache.Put(ctx, 1, 100, editorResolution())
	cache.Put(ctx, 1, 101, editorResolution())
	cache.Put(ctx, 2, 100, editorResolution())

	cache.InvalidateUser(ctx, 1)

	_, ok := cache.Get(ctx, 1, 100)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, 1, 101)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, 2, 100)
	assert.True(t, ok, "other users unaffected")
}

func TestCacheSharedInvalidation(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer clientA.Close()
	defer clientB.Close()

	cacheA, err := NewCache(16, time.Minute, clientA)
	require.NoError(t, err)
	cacheB, err := NewCache(16, time.Minute, clientB)
	require.NoError(t, err)

	cacheA.Put(ctx, 1, 100, editorResolution())
	cacheB.Put(ctx, 1, 100, editorResolution())

	// an invalidation through one replica is seen by the other
	cacheB.InvalidateUser(ctx, 1)

	_, ok := cacheA.Get(ctx, 1, 100)
	assert.False(t, ok)
	_, ok = cacheB.Get(ctx, 1, 100)
	assert.False(t, ok)
}

func TestCacheRedisDownReadsAsMiss(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache, err := NewCache(16, time.Minute, client)
	require.NoError(t, err)

	cache.Put(ctx, 1, 100, editorResolution())
	_, ok := cache.Get(ctx, 1, 100)
	require.True(t, ok)

	mr.Close()

	_, ok = cache.Get(ctx, 1, 100)
	assert.False(t, ok, "unreachable redis must not serve stale entries")
}
