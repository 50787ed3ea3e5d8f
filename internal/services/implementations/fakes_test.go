package implementations

import (
	"context"
	"errors"
	"slices"
	"sync"

	"media-gallery/internal/domain/gallery"
)

var errBoom = errors.New("boom")

// fakeImageRepo serves a fixed newest-first catalogue
type fakeImageRepo struct {
	images    []*gallery.Image
	listCalls int
	getCalls  int
	err       error
}

func (f *fakeImageRepo) matching(tags []string) []*gallery.Image {
	if len(tags) == 0 {
		return f.images
	}
	var out []*gallery.Image
	for _, img := range f.images {
		if img.HasAnyTag(tags...) {
			out = append(out, img)
		}
	}
	return out
}

func (f *fakeImageRepo) List(_ context.Context, req gallery.ListImagesRequest) ([]*gallery.Image, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	all := f.matching(req.Tags)
	start := min(req.Offset(), len(all))
	end := min(start+req.Limit, len(all))
	return slices.Clone(all[start:end]), nil
}

func (f *fakeImageRepo) Count(_ context.Context, tags []string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.matching(tags)), nil
}

func (f *fakeImageRepo) GetByID(_ context.Context, id int) (*gallery.Image, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	for _, img := range f.images {
		if img.ID == id {
			return img, nil
		}
	}
	return nil, gallery.ErrImageNotFound
}

type fakeTagRepo struct {
	tags  []gallery.Tag
	calls int
	err   error
}

func (f *fakeTagRepo) List(context.Context) ([]gallery.Tag, error) {
	f.calls++
	return f.tags, f.err
}

// memoryCache is an in-process gallery.CacheService
type memoryCache struct {
	mu       sync.Mutex
	images   map[int]*gallery.Image
	pages    map[string]*gallery.ImagePage
	tags     *gallery.TagList
	readErr  error
	writeErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		images: make(map[int]*gallery.Image),
		pages:  make(map[string]*gallery.ImagePage),
	}
}

func (m *memoryCache) GetImage(_ context.Context, id int) (*gallery.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if img, ok := m.images[id]; ok {
		return img, nil
	}
	return nil, gallery.ErrCacheMiss
}

func (m *memoryCache) SetImage(_ context.Context, img *gallery.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.images[img.ID] = img
	return nil
}

func (m *memoryCache) GetImagePage(_ context.Context, key string) (*gallery.ImagePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if page, ok := m.pages[key]; ok {
		return page, nil
	}
	return nil, gallery.ErrCacheMiss
}

func (m *memoryCache) SetImagePage(_ context.Context, key string, page *gallery.ImagePage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.pages[key] = page
	return nil
}

func (m *memoryCache) GetTags(context.Context) (*gallery.TagList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.tags == nil {
		return nil, gallery.ErrCacheMiss
	}
	return m.tags, nil
}

func (m *memoryCache) SetTags(_ context.Context, tags *gallery.TagList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.tags = tags
	return nil
}

func (m *memoryCache) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = make(map[int]*gallery.Image)
	m.pages = make(map[string]*gallery.ImagePage)
	m.tags = nil
	return nil
}

func (m *memoryCache) Health(context.Context) error { return nil }

// catalogue builds n images, id n newest; image i is tagged "even" or "odd"
// and every third image also "third"
func catalogue(n int) []*gallery.Image {
	images := make([]*gallery.Image, 0, n)
	for id := n; id >= 1; id-- {
		tags := []gallery.Tag{{ID: 1, Name: "odd"}}
		if id%2 == 0 {
			tags = []gallery.Tag{{ID: 2, Name: "even"}}
		}
		if id%3 == 0 {
			tags = append(tags, gallery.Tag{ID: 3, Name: "third"})
		}
		images = append(images, &gallery.Image{ID: id, URL: "https://example.com/img.png", Width: 100, Height: 100, Tags: tags})
	}
	return images
}
