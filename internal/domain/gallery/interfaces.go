package gallery

import "context"

// ImageRepository defines read access to stored images
type ImageRepository interface {
	// List returns one page of images, newest first, each with its full tag list
	List(ctx context.Context, req ListImagesRequest) ([]*Image, error)

	// Count returns the number of images carrying at least one of tags,
	// or every image when tags is empty
	Count(ctx context.Context, tags []string) (int, error)

	// GetByID returns ErrImageNotFound when no image has the id
	GetByID(ctx context.Context, id int) (*Image, error)
}

// TagRepository defines read access to the tag catalogue
type TagRepository interface {
	// List returns every tag ordered by name
	List(ctx context.Context) ([]Tag, error)
}

// CatalogWriter replaces the whole catalogue; used by the seed command only
type CatalogWriter interface {
	ReplaceCatalog(ctx context.Context, tags []string, images []*Image) (*CatalogStats, error)
}

// CatalogStats summarises a catalogue replacement
type CatalogStats struct {
	Tags      int
	Images    int
	ImageTags int
}

// ImageService defines the image query operations
type ImageService interface {
	ListImages(ctx context.Context, req ListImagesRequest) (*ImagePage, error)
	GetImage(ctx context.Context, id int) (*Image, error)
}

// TagService defines the tag query operations
type TagService interface {
	ListTags(ctx context.Context) (*TagList, error)
}

// CacheService defines the response cache used by the query services.
// Getters return ErrCacheMiss or ErrCacheUnavailable when nothing usable is cached.
type CacheService interface {
	GetImage(ctx context.Context, id int) (*Image, error)
	SetImage(ctx context.Context, img *Image) error
	GetImagePage(ctx context.Context, key string) (*ImagePage, error)
	SetImagePage(ctx context.Context, key string, page *ImagePage) error
	GetTags(ctx context.Context) (*TagList, error)
	SetTags(ctx context.Context, tags *TagList) error
	Invalidate(ctx context.Context) error
	Health(ctx context.Context) error
}
