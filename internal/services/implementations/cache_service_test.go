package implementations

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-gallery/internal/config"
	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/observability"
	"media-gallery/internal/platform/cache"
)

func TestCacheService_WithNilClient(t *testing.T) {
	service := NewCacheService(nil, observability.NopLogger())
	ctx := context.Background()

	assert.False(t, service.Enabled())

	t.Run("reads report cache unavailable", func(t *testing.T) {
		_, err := service.GetImage(ctx, 1)
		assert.ErrorIs(t, err, gallery.ErrCacheUnavailable)

		_, err = service.GetImagePage(ctx, "key")
		assert.ErrorIs(t, err, gallery.ErrCacheUnavailable)

		_, err = service.GetTags(ctx)
		assert.ErrorIs(t, err, gallery.ErrCacheUnavailable)

		assert.ErrorIs(t, service.Health(ctx), gallery.ErrCacheUnavailable)
	})

	t.Run("writes succeed silently", func(t *testing.T) {
		assert.NoError(t, service.SetImage(ctx, &gallery.Image{ID: 1}))
		assert.NoError(t, service.SetImagePage(ctx, "key", &gallery.ImagePage{}))
		assert.NoError(t, service.SetTags(ctx, &gallery.TagList{}))
		assert.NoError(t, service.Invalidate(ctx))
	})
}

func TestCacheService_WithRedis(t *testing.T) {
	client := getTestRedisClient(t)
	service := NewCacheService(client, observability.NopLogger())
	ctx := context.Background()

	assert.True(t, service.Enabled())
	require.NoError(t, service.Health(ctx))

	tags := &gallery.TagList{Data: []gallery.Tag{{ID: 1, Name: "pop"}}, Total: 1}
	require.NoError(t, service.SetTags(ctx, tags))

	cached, err := service.GetTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, tags, cached)

	require.NoError(t, service.Invalidate(ctx))
	_, err = service.GetTags(ctx)
	assert.ErrorIs(t, err, gallery.ErrCacheMiss)
}

// getTestRedisClient skips the test when no Redis/Valkey is reachable
func getTestRedisClient(t *testing.T) *cache.RedisClient {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client, err := cache.NewRedisClient(context.Background(), config.CacheConfig{
		Enabled:     true,
		Address:     addr,
		Database:    2,
		DialTimeout: 2 * time.Second,
		DefaultTTL:  time.Minute,
	})
	if err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client
}
