package implementations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/observability"
)

func TestTagService_ListTags(t *testing.T) {
	repo := &fakeTagRepo{tags: []gallery.Tag{{ID: 5, Name: "blues"}, {ID: 4, Name: "jazz"}}}
	svc := NewTagService(repo, nil, observability.NopLogger())

	list, err := svc.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, repo.tags, list.Data)
}

func TestTagService_EmptyCatalogue(t *testing.T) {
	svc := NewTagService(&fakeTagRepo{}, nil, observability.NopLogger())

	list, err := svc.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
	assert.NotNil(t, list.Data)
}

func TestTagService_UsesCache(t *testing.T) {
	repo := &fakeTagRepo{tags: []gallery.Tag{{ID: 1, Name: "rock"}}}
	cache := newMemoryCache()
	svc := NewTagService(repo, cache, observability.NopLogger())
	ctx := context.Background()

	_, err := svc.ListTags(ctx)
	require.NoError(t, err)
	_, err = svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
}

func TestTagService_RepositoryError(t *testing.T) {
	svc := NewTagService(&fakeTagRepo{err: errBoom}, newMemoryCache(), observability.NopLogger())

	_, err := svc.ListTags(context.Background())
	assert.ErrorIs(t, err, errBoom)
}
