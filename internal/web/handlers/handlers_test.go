package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-gallery/internal/config"
	"media-gallery/internal/domain/gallery"
)

var errDatabaseDown = errors.New("database down")

type fakeImageService struct {
	page    *gallery.ImagePage
	image   *gallery.Image
	err     error
	lastReq gallery.ListImagesRequest
	lastID  int
	panic   bool
}

func (f *fakeImageService) ListImages(_ context.Context, req gallery.ListImagesRequest) (*gallery.ImagePage, error) {
	if f.panic {
		panic("list exploded")
	}
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	req.Normalize()
	page := *f.page
	page.Pagination = gallery.NewPagination(req.Page, req.Limit, f.page.Pagination.Total)
	return &page, nil
}

func (f *fakeImageService) GetImage(_ context.Context, id int) (*gallery.Image, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	if f.image == nil || f.image.ID != id {
		return nil, gallery.ErrImageNotFound
	}
	return f.image, nil
}

type fakeTagService struct {
	list *gallery.TagList
	err  error
}

func (f *fakeTagService) ListTags(context.Context) (*gallery.TagList, error) {
	return f.list, f.err
}

var sampleImage = &gallery.Image{
	ID:        7,
	URL:       "https://placehold.co/400x300/FEF5ED/99A799?text=JAZZ",
	Width:     400,
	Height:    300,
	CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 120_000_000, time.FixedZone("CEST", 2*3600)),
	Tags:      []gallery.Tag{{ID: 5, Name: "blues"}, {ID: 4, Name: "jazz"}},
}

func testConfig(env string) *config.Config {
	return &config.Config{Environment: env, CORSOrigins: []string{"http://localhost:5173"}}
}

func newTestHandler(images *fakeImageService, tags *fakeTagService, opts ...Option) http.Handler {
	if images == nil {
		images = &fakeImageService{page: &gallery.ImagePage{Data: []*gallery.Image{}}}
	}
	if tags == nil {
		tags = &fakeTagService{list: &gallery.TagList{Data: []gallery.Tag{}}}
	}
	return New(images, tags, testConfig("production"), nil, opts...).Routes()
}

func doRequest(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestListImagesHandler(t *testing.T) {
	images := &fakeImageService{page: &gallery.ImagePage{
		Data:       []*gallery.Image{sampleImage},
		Pagination: gallery.Pagination{Total: 60},
	}}
	h := newTestHandler(images, nil)

	rec, body := doRequest(t, h, http.MethodGet, "/api/images?page=1&limit=12")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 1, pagination["page"])
	assert.EqualValues(t, 12, pagination["limit"])
	assert.EqualValues(t, 60, pagination["total"])
	assert.EqualValues(t, 5, pagination["totalPages"])
	assert.Equal(t, true, pagination["hasMore"])

	data := body["data"].([]any)
	require.Len(t, data, 1)
	first := data[0].(map[string]any)
	assert.EqualValues(t, 7, first["id"])
	assert.Equal(t, "2024-05-06T05:08:09.120Z", first["createdAt"])
	assert.Len(t, first["tags"], 2)
}

func TestListImagesHandlerParsesQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  gallery.ListImagesRequest
	}{
		{name: "no parameters", query: "", want: gallery.ListImagesRequest{}},
		{name: "numeric", query: "?page=3&limit=8", want: gallery.ListImagesRequest{Page: 3, Limit: 8}},
		{name: "non numeric falls back", query: "?page=abc&limit=x1", want: gallery.ListImagesRequest{}},
		{name: "numeric prefix falls back", query: "?page=2abc&limit=8px", want: gallery.ListImagesRequest{}},
		{name: "negative kept for clamping", query: "?page=-2&limit=-5", want: gallery.ListImagesRequest{Page: -2, Limit: -5}},
		{name: "tags trimmed", query: "?tags=jazz,%20blues%20,,jazz", want: gallery.ListImagesRequest{Tags: []string{"jazz", "blues"}}},
		{name: "empty tags", query: "?tags=", want: gallery.ListImagesRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &fakeImageService{page: &gallery.ImagePage{Data: []*gallery.Image{}}}
			rec, _ := doRequest(t, newTestHandler(images, nil), http.MethodGet, "/api/images"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, images.lastReq)
		})
	}
}

func TestListImagesHandlerEmptyPage(t *testing.T) {
	rec, body := doRequest(t, newTestHandler(nil, nil), http.MethodGet, "/api/images?page=99")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["data"])
	assert.Equal(t, false, body["pagination"].(map[string]any)["hasMore"])
}

func TestListImagesHandlerFailure(t *testing.T) {
	images := &fakeImageService{err: errDatabaseDown}
	rec, body := doRequest(t, newTestHandler(images, nil), http.MethodGet, "/api/images")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "Internal server error", "message": "Failed to fetch images"}, body)
}

func TestGetImageHandler(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantBody   map[string]any
	}{
		{name: "non integer", path: "/api/images/abc", wantStatus: http.StatusBadRequest, wantBody: map[string]any{"error": "Invalid image ID"}},
		{name: "fraction", path: "/api/images/1.5", wantStatus: http.StatusBadRequest, wantBody: map[string]any{"error": "Invalid image ID"}},
		{name: "absent", path: "/api/images/999999", wantStatus: http.StatusNotFound, wantBody: map[string]any{"error": "Image not found"}},
		{
			name:       "store failure",
			path:       "/api/images/7",
			err:        errDatabaseDown,
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"error": "Internal server error", "message": "Failed to fetch image"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &fakeImageService{image: sampleImage, err: tt.err}
			rec, body := doRequest(t, newTestHandler(images, nil), http.MethodGet, tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, body)
		})
	}

	t.Run("found", func(t *testing.T) {
		images := &fakeImageService{image: sampleImage}
		rec := httptest.NewRecorder()
		newTestHandler(images, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images/7", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ImageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 7, images.lastID)
		assert.Equal(t, ImageDTO{
			ID:        7,
			URL:       sampleImage.URL,
			Width:     400,
			Height:    300,
			CreatedAt: "2024-05-06T05:08:09.120Z",
			Tags:      []TagDTO{{ID: 5, Name: "blues"}, {ID: 4, Name: "jazz"}},
		}, resp.Data)
	})
}

func TestListTagsHandler(t *testing.T) {
	tags := &fakeTagService{list: &gallery.TagList{
		Data:  []gallery.Tag{{ID: 5, Name: "blues"}, {ID: 4, Name: "jazz"}},
		Total: 2,
	}}
	rec := httptest.NewRecorder()
	newTestHandler(nil, tags).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TagListDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, TagListDTO{Data: []TagDTO{{ID: 5, Name: "blues"}, {ID: 4, Name: "jazz"}}, Total: 2}, resp)

	rec, body := doRequest(t, newTestHandler(nil, &fakeTagService{err: errDatabaseDown}), http.MethodGet, "/api/tags")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch tags", body["message"])
}

func TestNotFound(t *testing.T) {
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/api/unknown"},
		{http.MethodPost, "/api/images"},
		{http.MethodDelete, "/api/images/1"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec, body := doRequest(t, newTestHandler(nil, nil), tc.method, tc.path)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, map[string]any{"error": "Not found"}, body)
		})
	}
}

func TestRecovererHidesDetailOutsideDevelopment(t *testing.T) {
	for _, tc := range []struct {
		env         string
		wantMessage any
	}{
		{env: "production", wantMessage: nil},
		{env: "development", wantMessage: "list exploded"},
	} {
		t.Run(tc.env, func(t *testing.T) {
			h := New(&fakeImageService{panic: true}, &fakeTagService{}, testConfig(tc.env), nil).Routes()
			rec, body := doRequest(t, h, http.MethodGet, "/api/images")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "Internal server error", body["error"])
			assert.Equal(t, tc.wantMessage, body["message"])
		})
	}
}

func TestCORS(t *testing.T) {
	h := newTestHandler(nil, nil)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/images", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.True(t, rec.Code == http.StatusNoContent || rec.Code == http.StatusOK, "got %d", rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard drops credentials", func(t *testing.T) {
		ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		wildcard := NewCORS([]string{"*"})(ok)

		req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		req.Header.Set("Origin", "http://anywhere.example.com")
		rec := httptest.NewRecorder()
		wildcard.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestQueryInt(t *testing.T) {
	assert.Equal(t, 0, queryInt(""))
	assert.Equal(t, 0, queryInt("abc"))
	assert.Equal(t, 0, queryInt("12abc"))
	// Trailing garbage is not a number, so page=2abc reads as the default page
	assert.Equal(t, 0, queryInt("2abc"))
	assert.Equal(t, 12, queryInt("12"))
	assert.Equal(t, -1, queryInt("-1"))
}
