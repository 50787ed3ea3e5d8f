// Package seed generates the demo gallery catalogue
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/observability"
)

// PlaceholderPrefix is the object key prefix of mirrored placeholders
const PlaceholderPrefix = "placeholders/"

// AssetStore receives rendered placeholders
type AssetStore interface {
	EnsureBucket(ctx context.Context, publicPrefix string) error
	RemovePrefix(ctx context.Context, prefix string) error
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	ObjectURL(key string) string
}

// Invalidator flushes cached API responses
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Result summarises a seed run
type Result struct {
	gallery.CatalogStats
	Mirrored int
	Seeded   []*gallery.Image
}

// Seeder replaces the catalogue with freshly generated placeholders
type Seeder struct {
	catalog gallery.CatalogWriter
	logger  *observability.Logger
	store   AssetStore
	cache   Invalidator
	rng     *rand.Rand
	now     func() time.Time
	count   int
}

// Option customises a Seeder
type Option func(*Seeder)

// WithAssetStore mirrors rendered placeholders to store and points image
// URLs at the stored objects
func WithAssetStore(store AssetStore) Option {
	return func(s *Seeder) { s.store = store }
}

// WithCache flushes the response cache after seeding
func WithCache(cache Invalidator) Option {
	return func(s *Seeder) { s.cache = cache }
}

// WithRand sets the random source; a fixed seed gives a reproducible catalogue
func WithRand(rng *rand.Rand) Option {
	return func(s *Seeder) { s.rng = rng }
}

// WithClock sets the time the newest image is created at
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

// WithImageCount overrides DefaultImageCount
func WithImageCount(n int) Option {
	return func(s *Seeder) {
		if n > 0 {
			s.count = n
		}
	}
}

// New creates a seeder writing to catalog
func New(catalog gallery.CatalogWriter, logger *observability.Logger, opts ...Option) *Seeder {
	if logger == nil {
		logger = observability.NopLogger()
	}

	s := &Seeder{
		catalog: catalog,
		logger:  logger.Component("seed"),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		count:   DefaultImageCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run generates the catalogue, mirrors placeholders when a store is
// configured, replaces the stored catalogue and flushes the cache.
// A cache flush failure is logged and does not fail the run.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	if s.catalog == nil {
		return nil, errors.New("catalog writer is required")
	}

	placeholders := Generate(s.rng, s.count)
	now := s.now().UTC()

	urls := make([]string, len(placeholders))
	for i, p := range placeholders {
		urls[i] = p.URL()
	}

	result := &Result{}
	if s.store != nil {
		mirrored, err := s.mirror(ctx, placeholders, urls)
		if err != nil {
			return nil, err
		}
		result.Mirrored = mirrored
	}

	images := make([]*gallery.Image, len(placeholders))
	for i, p := range placeholders {
		images[i] = p.Image(urls[i], CreatedAt(now, i, len(placeholders)))
	}

	stats, err := s.catalog.ReplaceCatalog(ctx, TagPool, images)
	if err != nil {
		return nil, fmt.Errorf("failed to replace catalogue: %w", err)
	}
	result.CatalogStats = *stats
	result.Seeded = images

	s.logger.Info(ctx).
		Int("tags", stats.Tags).
		Int("images", stats.Images).
		Int("image_tags", stats.ImageTags).
		Int("mirrored", result.Mirrored).
		Msg("Catalogue seeded")

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn(ctx).Err(err).Msg("Failed to flush response cache")
		} else {
			s.logger.Debug(ctx).Msg("Response cache flushed")
		}
	}

	return result, nil
}

// mirror uploads every placeholder and rewrites urls to the stored objects
func (s *Seeder) mirror(ctx context.Context, placeholders []Placeholder, urls []string) (int, error) {
	if err := s.store.EnsureBucket(ctx, PlaceholderPrefix); err != nil {
		return 0, err
	}
	if err := s.store.RemovePrefix(ctx, PlaceholderPrefix); err != nil {
		return 0, err
	}

	for i, p := range placeholders {
		data, err := RenderPNG(p)
		if err != nil {
			return i, fmt.Errorf("failed to render placeholder %d: %w", i+1, err)
		}

		key := fmt.Sprintf("%s%d.png", PlaceholderPrefix, i+1)
		if err := s.store.PutObject(ctx, key, data, "image/png"); err != nil {
			return i, err
		}
		urls[i] = s.store.ObjectURL(key)
	}

	s.logger.Debug(ctx).Int("count", len(placeholders)).Msg("Placeholders mirrored")
	return len(placeholders), nil
}
