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

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client), mr
}

func TestSetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var got map[string]int
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, map[string]int{"a": 1}, got)

	mr.FastForward(2 * time.Minute)
	err := c.Get(ctx, "k", &got)
	assert.True(t, IsMiss(err))
}

func TestDeleteTracked(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "session:1", "a", time.Minute))
	require.NoError(t, c.Set(ctx, "session:2", "b", time.Minute))
	require.NoError(t, c.Set(ctx, "session:3", "c", time.Minute))
	require.NoError(t, c.Track(ctx, "role:r", "session:1", time.Minute))
	require.NoError(t, c.Track(ctx, "role:r", "session:2", time.Minute))

	require.NoError(t, c.DeleteTracked(ctx, "role:r"))

	assert.False(t, mr.Exists("session:1"))
	assert.False(t, mr.Exists("session:2"))
	assert.False(t, mr.Exists("role:r"))
	assert.True(t, mr.Exists("session:3"))
}

func TestDeleteTrackedEmptySet(t *testing.T) {
	c, _ := newTestCache(t)
	assert.NoError(t, c.DeleteTracked(context.Background(), "role:none"))
}
