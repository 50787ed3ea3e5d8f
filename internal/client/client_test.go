package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-gallery/internal/domain/gallery"
)

func newAPIServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestImageAPIGetImages(t *testing.T) {
	var gotQuery string
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/images", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		gotQuery = r.URL.RawQuery

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [{"id": 7, "url": "https://placehold.co/400x300", "width": 400, "height": 300,
				"createdAt": "2024-05-01T12:00:00.000Z", "tags": [{"id": 4, "name": "jazz"}]}],
			"pagination": {"page": 2, "limit": 8, "total": 9, "totalPages": 2, "hasMore": false}
		}`))
	})

	api := NewImageAPI(srv.URL+"/api/", nil)
	page, err := api.GetImages(context.Background(), gallery.ListImagesRequest{
		Page:  2,
		Limit: 8,
		Tags:  []string{"jazz", "blues"},
	})
	require.NoError(t, err)

	assert.Equal(t, "limit=8&page=2&tags=jazz%2Cblues", gotQuery)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 7, page.Data[0].ID)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), page.Data[0].CreatedAt.UTC())
	assert.Equal(t, []string{"jazz"}, page.Data[0].TagNames())
	assert.Equal(t, gallery.Pagination{Page: 2, Limit: 8, Total: 9, TotalPages: 2, HasMore: false}, page.Pagination)
}

func TestImageAPIOmitsDefaults(t *testing.T) {
	var gotQuery string
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data": [], "pagination": {"page": 1, "limit": 12}}`))
	})

	_, err := NewImageAPI(srv.URL, nil).GetImages(context.Background(), gallery.ListImagesRequest{})
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}

func TestImageAPIGetImage(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/3":
			_, _ = w.Write([]byte(`{"data": {"id": 3, "url": "u", "width": 1, "height": 1,
				"createdAt": "2024-05-01T12:00:00.000Z", "tags": []}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": "Image not found"}`))
		}
	})
	api := NewImageAPI(srv.URL, nil)

	img, err := api.GetImage(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, img.ID)

	_, err = api.GetImage(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Image not found", apiErr.Message)
}

func TestAPIErrorIncludesServerMessage(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "Internal server error", "message": "Failed to fetch tags"}`))
	})

	_, err := NewTagAPI(srv.URL, nil).GetTags(context.Background())
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "500 Internal server error: Failed to fetch tags")
}

func TestAPIRejectsMalformedBody(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := NewTagAPI(srv.URL, nil).GetTags(context.Background())
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestTagAPIGetTags(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": [{"id": 5, "name": "blues"}, {"id": 4, "name": "jazz"}], "total": 2}`))
	})

	tags, err := NewTagAPI(srv.URL, nil).GetTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, tags.Total)
	assert.Equal(t, []gallery.Tag{{ID: 5, Name: "blues"}, {ID: 4, Name: "jazz"}}, tags.Data)
}

func TestDefaultBaseURL(t *testing.T) {
	api := NewTagAPI("", nil)
	assert.Equal(t, DefaultBaseURL, api.baseURL)
	assert.NotNil(t, api.httpClient)
}
