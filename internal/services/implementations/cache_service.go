package implementations

import (
	"context"

	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/observability"
	"media-gallery/internal/platform/cache"
)

// CacheService implements gallery.CacheService using Redis/Valkey.
// A nil client turns every read into ErrCacheUnavailable and every write into a no-op.
type CacheService struct {
	client *cache.RedisClient
	logger *observability.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(client *cache.RedisClient, logger *observability.Logger) *CacheService {
	return &CacheService{
		client: client,
		logger: logger,
	}
}

// Enabled reports whether a backing client is configured
func (c *CacheService) Enabled() bool {
	return c.client != nil
}

// GetImage retrieves a cached image
func (c *CacheService) GetImage(ctx context.Context, id int) (*gallery.Image, error) {
	if c.client == nil {
		return nil, gallery.ErrCacheUnavailable
	}

	return c.client.GetImage(ctx, id)
}

// SetImage caches an image
func (c *CacheService) SetImage(ctx context.Context, img *gallery.Image) error {
	if c.client == nil {
		c.logger.Debug(ctx).Int("image_id", img.ID).Msg("Cache unavailable, skipping image cache")
		return nil
	}

	return c.client.SetImage(ctx, img)
}

// GetImagePage retrieves a cached image listing
func (c *CacheService) GetImagePage(ctx context.Context, key string) (*gallery.ImagePage, error) {
	if c.client == nil {
		return nil, gallery.ErrCacheUnavailable
	}

	return c.client.GetImagePage(ctx, key)
}

// SetImagePage caches an image listing
func (c *CacheService) SetImagePage(ctx context.Context, key string, page *gallery.ImagePage) error {
	if c.client == nil {
		c.logger.Debug(ctx).Str("key", key).Msg("Cache unavailable, skipping image list cache")
		return nil
	}

	return c.client.SetImagePage(ctx, key, page)
}

// GetTags retrieves the cached tag catalogue
func (c *CacheService) GetTags(ctx context.Context) (*gallery.TagList, error) {
	if c.client == nil {
		return nil, gallery.ErrCacheUnavailable
	}

	return c.client.GetTags(ctx)
}

// SetTags caches the tag catalogue
func (c *CacheService) SetTags(ctx context.Context, tags *gallery.TagList) error {
	if c.client == nil {
		return nil
	}

	return c.client.SetTags(ctx, tags)
}

// Invalidate clears every cached gallery response
func (c *CacheService) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	return c.client.Invalidate(ctx)
}

// Health checks if the cache service is healthy
func (c *CacheService) Health(ctx context.Context) error {
	if c.client == nil {
		return gallery.ErrCacheUnavailable
	}

	return c.client.Health(ctx)
}
