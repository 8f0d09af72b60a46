package services

import (
	"context"
	"testing"
	"time"

	"github.com/AnshRaj112/serenify-journal/internal/metrics"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func TestCache_SetThenGet(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewCacheService(client, nil)
	ctx := context.Background()

	in := cachedThing{Name: "weather", Count: 3, Tags: []string{"a", "b"}}
	cache.Set(ctx, "thing:1", in, time.Minute)

	var out cachedThing
	hit, err := cache.Get(ctx, "thing:1", &out)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, in, out)
}

func TestCache_Miss(t *testing.T) {
	_, client := newTestRedis(t)
	m := metrics.New(prometheus.NewRegistry())
	cache := NewCacheService(client, m.Cache)

	var out cachedThing
	hit, err := cache.Get(context.Background(), "nope", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cache.Misses))
}

func TestCache_TTLExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewCacheService(client, nil)
	ctx := context.Background()

	cache.Set(ctx, "short", cachedThing{Name: "x"}, 30*time.Second)
	assert.True(t, mr.Exists(CacheKeyPrefix+"short"))

	mr.FastForward(31 * time.Second)

	var out cachedThing
	hit, err := cache.Get(ctx, "short", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_DefaultTTLForNonPositive(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewCacheService(client, nil)

	cache.Set(context.Background(), "k", 1, 0)
	assert.Equal(t, DefaultCacheTTL, mr.TTL(CacheKeyPrefix+"k"))
}

func TestCache_CorruptPayloadIsAnError(t *testing.T) {
	mr, client := newTestRedis(t)
	m := metrics.New(prometheus.NewRegistry())
	cache := NewCacheService(client, m.Cache)

	require.NoError(t, mr.Set(CacheKeyPrefix+"bad", "{not json"))

	var out cachedThing
	hit, err := cache.Get(context.Background(), "bad", &out)
	assert.False(t, hit)
	assert.ErrorIs(t, err, ErrCorruptCacheData)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cache.Corrupt))
}

func TestCache_WrongShapeIsCorrupt(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewCacheService(client, nil)
	ctx := context.Background()

	cache.Set(ctx, "shape", []int{1, 2, 3}, time.Minute)

	var out cachedThing
	_, err := cache.Get(ctx, "shape", &out)
	assert.ErrorIs(t, err, ErrCorruptCacheData)
}

func TestCache_SetSwallowsMarshalError(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewCacheService(client, nil)

	assert.NotPanics(t, func() {
		cache.Set(context.Background(), "fn", func() {}, time.Minute)
	})
	assert.False(t, mr.Exists(CacheKeyPrefix+"fn"))
}

func TestCache_SetSwallowsBackendError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCacheService(client, nil)
	mr.Close()

	assert.NotPanics(t, func() {
		cache.Set(context.Background(), "down", 1, time.Minute)
	})

	hit, err := cache.Get(context.Background(), "down", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_Clear(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewCacheService(client, nil)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		cache.Set(ctx, CacheKey("journal", string(rune('a'+i))), i, time.Minute)
	}
	require.NoError(t, mr.Set("session:keepme", "alice"))

	require.NoError(t, cache.Clear(ctx))

	keys := mr.Keys()
	assert.Equal(t, []string{"session:keepme"}, keys)
}

func TestCache_Delete(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewCacheService(client, nil)
	ctx := context.Background()

	cache.Set(ctx, "gone", 1, time.Minute)
	cache.Delete(ctx, "gone")
	assert.False(t, mr.Exists(CacheKeyPrefix+"gone"))
}

func TestCache_NilClientIsNoop(t *testing.T) {
	cache := NewCacheService(nil, nil)
	ctx := context.Background()

	cache.Set(ctx, "k", 1, time.Minute)
	hit, err := cache.Get(ctx, "k", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Clear(ctx))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "journal:abc", CacheKey("journal", "abc"))
}
