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

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisResultCacheRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisResultCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "vector:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "vector:abc", 5835.167712345678))

	v, ok, err := c.Get(ctx, "vector:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5835.167712345678, v)

	assert.True(t, mr.Exists(KeyPrefix+"vector:abc"))
	assert.Equal(t, time.Minute, mr.TTL(KeyPrefix+"vector:abc"))
}

func TestRedisResultCacheExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisResultCache(client, time.Second)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", 1.5))
	mr.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisResultCacheErrors(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisResultCache(client, 0)
	ctx := context.Background()

	_, _, err := c.Get(ctx, "")
	assert.Error(t, err)
	assert.Error(t, c.Put(ctx, "", 1))

	mr.SetError("server down")
	_, _, err = c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Put(ctx, "k", 1))

	mr.SetError("")
	require.NoError(t, mr.Set(KeyPrefix+"bad", "not-a-number"))
	_, _, err = c.Get(ctx, "bad")
	assert.Error(t, err)
}

func TestRedisResultCacheNilClient(t *testing.T) {
	c := NewRedisResultCache(nil, 0)
	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, c.Put(context.Background(), "k", 1))
}
