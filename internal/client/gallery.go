package client

import (
	"context"
	"errors"
	"slices"
	"sync"

	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/observability"
)

// DefaultPageSize is the number of images the controller asks for per page
const DefaultPageSize = 8

// ImageLister fetches image pages
type ImageLister interface {
	GetImages(ctx context.Context, req gallery.ListImagesRequest) (*gallery.ImagePage, error)
}

// TagLister fetches the tag catalogue
type TagLister interface {
	GetTags(ctx context.Context) (*gallery.TagList, error)
}

// State is what a front end renders
type State struct {
	Images         []*gallery.Image
	Tags           []gallery.Tag
	ActiveTags     []string
	Page           int
	HasMore        bool
	Loading        bool
	InitialLoading bool
	TotalImages    int
}

// ActiveFilterCount is the number of selected tags
func (s State) ActiveFilterCount() int {
	return len(s.ActiveTags)
}

// HasActiveFilters reports whether any tag is selected
func (s State) HasActiveFilters() bool {
	return len(s.ActiveTags) > 0
}

func initialState() State {
	return State{
		Page:           1,
		HasMore:        true,
		InitialLoading: true,
	}
}

// Gallery is the browsing state controller. It is safe for concurrent use:
// state changes happen under a mutex, fetches run outside it, and only the
// response to the most recently issued image fetch is applied.
type Gallery struct {
	images   ImageLister
	tags     TagLister
	logger   *observability.Logger
	pageSize int

	mu    sync.Mutex
	state State
	token uint64
}

// GalleryOption customises a Gallery
type GalleryOption func(*Gallery)

// WithPageSize overrides DefaultPageSize
func WithPageSize(n int) GalleryOption {
	return func(g *Gallery) {
		if n > 0 {
			g.pageSize = n
		}
	}
}

// WithLogger sets the logger used for fetch failures
func WithLogger(logger *observability.Logger) GalleryOption {
	return func(g *Gallery) {
		if logger != nil {
			g.logger = logger.Component("client")
		}
	}
}

// NewGallery creates a controller in its initial state
func NewGallery(images ImageLister, tags TagLister, opts ...GalleryOption) *Gallery {
	g := &Gallery{
		images:   images,
		tags:     tags,
		logger:   observability.NopLogger(),
		pageSize: DefaultPageSize,
		state:    initialState(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot returns a copy of the current state
func (g *Gallery) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state
	s.Images = slices.Clone(g.state.Images)
	s.Tags = slices.Clone(g.state.Tags)
	s.ActiveTags = slices.Clone(g.state.ActiveTags)
	return s
}

// ActiveFilterCount is the number of selected tags
func (g *Gallery) ActiveFilterCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.ActiveFilterCount()
}

// HasActiveFilters reports whether any tag is selected
func (g *Gallery) HasActiveFilters() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.HasActiveFilters()
}

// Init loads the tag catalogue and the first unfiltered page. Both fetches
// run even if one fails; the errors are returned joined.
func (g *Gallery) Init(ctx context.Context) error {
	tagsErr := g.fetchTags(ctx)

	g.mu.Lock()
	req, token := g.beginLocked(1)
	g.mu.Unlock()

	return errors.Join(tagsErr, g.fetchImages(ctx, req, token, true))
}

// ToggleTag adds name to the active filter, removes it when already active,
// or clears the filter for gallery.AllTags. The image list is reset and
// page 1 is fetched with the new filter, superseding any fetch in flight.
func (g *Gallery) ToggleTag(ctx context.Context, name string) error {
	g.mu.Lock()
	switch {
	case name == gallery.AllTags:
		g.state.ActiveTags = nil
	case slices.Contains(g.state.ActiveTags, name):
		g.state.ActiveTags = slices.DeleteFunc(slices.Clone(g.state.ActiveTags), func(t string) bool { return t == name })
	default:
		g.state.ActiveTags = append(slices.Clone(g.state.ActiveTags), name)
	}
	g.state.Images = nil
	g.state.Page = 1
	g.state.HasMore = true
	g.state.InitialLoading = true
	req, token := g.beginLocked(1)
	g.mu.Unlock()

	return g.fetchImages(ctx, req, token, true)
}

// LoadMore fetches the next page with the current filter. It does nothing
// while a fetch is running or when there are no more pages.
func (g *Gallery) LoadMore(ctx context.Context) error {
	g.mu.Lock()
	if g.state.Loading || !g.state.HasMore {
		g.mu.Unlock()
		return nil
	}
	req, token := g.beginLocked(g.state.Page + 1)
	g.mu.Unlock()

	return g.fetchImages(ctx, req, token, false)
}

// Reset returns the controller to its initial state. Responses to fetches
// issued before the reset are discarded.
func (g *Gallery) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.token++
	g.state = initialState()
}

// beginLocked marks a fetch of page as running and issues its token.
// g.mu must be held.
func (g *Gallery) beginLocked(page int) (gallery.ListImagesRequest, uint64) {
	g.token++
	g.state.Loading = true

	return gallery.ListImagesRequest{
		Page:  page,
		Limit: g.pageSize,
		Tags:  slices.Clone(g.state.ActiveTags),
	}, g.token
}

func (g *Gallery) fetchImages(ctx context.Context, req gallery.ListImagesRequest, token uint64, replace bool) error {
	result, err := g.images.GetImages(ctx, req)

	g.mu.Lock()
	defer g.mu.Unlock()

	if token != g.token {
		g.logger.Debug(ctx).
			Int("page", req.Page).
			Strs("tags", req.Tags).
			Msg("Discarding stale image response")
		return nil
	}

	g.state.Loading = false
	g.state.InitialLoading = false

	if err != nil {
		g.logger.Error(ctx).Err(err).
			Int("page", req.Page).
			Strs("tags", req.Tags).
			Msg("Failed to fetch images")
		return err
	}

	if replace {
		g.state.Images = slices.Clone(result.Data)
	} else {
		g.state.Images = append(g.state.Images, result.Data...)
	}
	g.state.HasMore = result.Pagination.HasMore
	g.state.TotalImages = result.Pagination.Total
	g.state.Page = req.Page
	return nil
}

func (g *Gallery) fetchTags(ctx context.Context) error {
	result, err := g.tags.GetTags(ctx)
	if err != nil {
		g.logger.Error(ctx).Err(err).Msg("Failed to fetch tags")
		return err
	}

	g.mu.Lock()
	g.state.Tags = slices.Clone(result.Data)
	g.mu.Unlock()
	return nil
}
