package implementations

import (
	"context"
	"fmt"

	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/observability"
)

const tagsCacheKey = "tags"

// TagServiceImpl implements the gallery.TagService interface
type TagServiceImpl struct {
	tagRepo gallery.TagRepository
	cache   gallery.CacheService // can be nil
	logger  *observability.Logger
}

// NewTagService creates a new tag service implementation
func NewTagService(
	tagRepo gallery.TagRepository,
	cache gallery.CacheService,
	logger *observability.Logger,
) gallery.TagService {
	return &TagServiceImpl{
		tagRepo: tagRepo,
		cache:   cache,
		logger:  logger,
	}
}

// ListTags returns every tag sorted by name
func (s *TagServiceImpl) ListTags(ctx context.Context) (*gallery.TagList, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTags(ctx)
		if err == nil {
			return cached, nil
		}
		logCacheError(ctx, s.logger, err, "read", tagsCacheKey)
	}

	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	if tags == nil {
		tags = []gallery.Tag{}
	}

	list := &gallery.TagList{Data: tags, Total: len(tags)}

	if s.cache != nil {
		if err := s.cache.SetTags(ctx, list); err != nil {
			logCacheError(ctx, s.logger, err, "write", tagsCacheKey)
		}
	}

	return list, nil
}
