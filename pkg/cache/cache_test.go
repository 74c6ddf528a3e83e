package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientAlwaysMisses(t *testing.T) {
	c := NewService(nil)
	ctx := context.Background()

	assert.False(t, c.IsAvailable())
	require.NoError(t, c.Set(ctx, KeyFeedbackStats, map[string]int{"total": 1}, TTLStats))

	var out map[string]int
	assert.ErrorIs(t, c.Get(ctx, KeyFeedbackStats, &out), ErrMiss)
	assert.NoError(t, c.Delete(ctx, KeyFeedbackStats))
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	c := NewService(client)
	ctx := context.Background()
	key := KeyPrefix + "test:" + time.Now().Format("150405.000")

	var out struct{ Total int }
	assert.ErrorIs(t, c.Get(ctx, key, &out), ErrMiss)

	require.NoError(t, c.Set(ctx, key, struct{ Total int }{Total: 3}, time.Minute))
	require.NoError(t, c.Get(ctx, key, &out))
	assert.Equal(t, 3, out.Total)

	require.NoError(t, c.Delete(ctx, key))
	assert.ErrorIs(t, c.Get(ctx, key, &out), ErrMiss)
}
