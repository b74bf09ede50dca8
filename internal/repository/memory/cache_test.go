package memory

import (
	"context"
	"testing"
	"time"

	"github.com/BloggingApp/artblog-service/internal/repository/redisrepo"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name string `json:"name"`
}

func TestCacheRoundTripThroughRedisHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	_, err := redisrepo.Get[cachedThing](c, ctx, "missing")
	assert.ErrorIs(t, err, redis.Nil)

	require.NoError(t, c.SetJSON(ctx, "thing", cachedThing{Name: "x"}, time.Hour))
	got, err := redisrepo.Get[cachedThing](c, ctx, "thing")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)

	require.NoError(t, c.SetJSON(ctx, "posts:20:0", []cachedThing{{Name: "a"}}, time.Hour))
	require.NoError(t, c.SetJSON(ctx, "posts:20:20", []cachedThing{}, time.Hour))
	require.NoError(t, redisrepo.DelPattern(c, ctx, redisrepo.POSTS_PAGE_MATCH))

	_, err = redisrepo.GetMany[cachedThing](c, ctx, "posts:20:0")
	assert.ErrorIs(t, err, redis.Nil)
	_, err = redisrepo.Get[cachedThing](c, ctx, "thing")
	assert.NoError(t, err)
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	require.NoError(t, c.Set(ctx, "k", "v", 5*time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	assert.ErrorIs(t, c.Get(ctx, "k").Err(), redis.Nil)
}
