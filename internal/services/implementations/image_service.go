package implementations

import (
	"context"
	"errors"
	"fmt"

	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/observability"
)

// ImageServiceImpl implements the gallery.ImageService interface
type ImageServiceImpl struct {
	imageRepo gallery.ImageRepository
	cache     gallery.CacheService // can be nil
	logger    *observability.Logger
}

// NewImageService creates a new image service implementation
func NewImageService(
	imageRepo gallery.ImageRepository,
	cache gallery.CacheService,
	logger *observability.Logger,
) gallery.ImageService {
	return &ImageServiceImpl{
		imageRepo: imageRepo,
		cache:     cache,
		logger:    logger,
	}
}

// ListImages returns one page of images, newest first, filtered to images
// carrying any of the requested tags
func (s *ImageServiceImpl) ListImages(ctx context.Context, req gallery.ListImagesRequest) (*gallery.ImagePage, error) {
	req.Normalize()
	cacheKey := req.CacheKey()

	if s.cache != nil {
		cached, err := s.cache.GetImagePage(ctx, cacheKey)
		if err == nil {
			return cached, nil
		}
		s.logCacheError(ctx, err, "read", cacheKey)
	}

	total, err := s.imageRepo.Count(ctx, req.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}

	images, err := s.imageRepo.List(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	page := &gallery.ImagePage{
		Data:       images,
		Pagination: gallery.NewPagination(req.Page, req.Limit, total),
	}

	if s.cache != nil {
		if err := s.cache.SetImagePage(ctx, cacheKey, page); err != nil {
			s.logCacheError(ctx, err, "write", cacheKey)
		}
	}

	return page, nil
}

// GetImage retrieves an image by ID with its tags
func (s *ImageServiceImpl) GetImage(ctx context.Context, id int) (*gallery.Image, error) {
	if id <= 0 {
		return nil, gallery.ErrImageNotFound
	}

	if s.cache != nil {
		cached, err := s.cache.GetImage(ctx, id)
		if err == nil {
			return cached, nil
		}
		s.logCacheError(ctx, err, "read", fmt.Sprintf("image:%d", id))
	}

	img, err := s.imageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetImage(ctx, img); err != nil {
			s.logCacheError(ctx, err, "write", fmt.Sprintf("image:%d", id))
		}
	}

	return img, nil
}

// logCacheError reports cache failures that are not plain misses.
// The request is always served from the database afterwards.
func (s *ImageServiceImpl) logCacheError(ctx context.Context, err error, op, key string) {
	logCacheError(ctx, s.logger, err, op, key)
}

func logCacheError(ctx context.Context, logger *observability.Logger, err error, op, key string) {
	if errors.Is(err, gallery.ErrCacheMiss) || errors.Is(err, gallery.ErrCacheUnavailable) {
		return
	}
	logger.Warn(ctx).Err(err).Str("operation", op).Str("key", key).Msg("Cache operation failed")
}
