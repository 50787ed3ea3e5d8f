// Package client talks to the gallery API and holds the browsing state
// shown by gallery front ends
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"media-gallery/internal/domain/gallery"
)

// DefaultBaseURL is the API prefix of a locally running server
const DefaultBaseURL = "http://localhost:3001/api"

const maxBodySize = 4 << 20

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api request failed: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// newHTTPClient returns the client used when none is supplied
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// transport holds what ImageAPI and TagAPI share
type transport struct {
	baseURL    string
	httpClient *http.Client
}

func newTransport(baseURL string, httpClient *http.Client) transport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = newHTTPClient()
	}
	return transport{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// getJSON issues a GET for path and decodes the JSON body into out
func (t transport) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := t.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // Resource cleanup

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Error
			if payload.Message != "" {
				apiErr.Message += ": " + payload.Message
			}
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ImageAPI reads images from the gallery API
type ImageAPI struct {
	transport
}

// NewImageAPI creates an image client for baseURL (the /api prefix)
func NewImageAPI(baseURL string, httpClient *http.Client) *ImageAPI {
	return &ImageAPI{transport: newTransport(baseURL, httpClient)}
}

// GetImages fetches one page. Zero page or limit and an empty tag list are
// left out of the query so the server defaults apply.
func (a *ImageAPI) GetImages(ctx context.Context, req gallery.ListImagesRequest) (*gallery.ImagePage, error) {
	query := url.Values{}
	if req.Page != 0 {
		query.Set("page", strconv.Itoa(req.Page))
	}
	if req.Limit != 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	if len(req.Tags) > 0 {
		query.Set("tags", strings.Join(req.Tags, ","))
	}

	var page gallery.ImagePage
	if err := a.getJSON(ctx, "/images", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetImage fetches a single image
func (a *ImageAPI) GetImage(ctx context.Context, id int) (*gallery.Image, error) {
	var resp struct {
		Data *gallery.Image `json:"data"`
	}
	if err := a.getJSON(ctx, "/images/"+strconv.Itoa(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, gallery.ErrImageNotFound
	}
	return resp.Data, nil
}

// TagAPI reads the tag catalogue from the gallery API
type TagAPI struct {
	transport
}

// NewTagAPI creates a tag client for baseURL (the /api prefix)
func NewTagAPI(baseURL string, httpClient *http.Client) *TagAPI {
	return &TagAPI{transport: newTransport(baseURL, httpClient)}
}

// GetTags fetches every tag
func (a *TagAPI) GetTags(ctx context.Context) (*gallery.TagList, error) {
	var tags gallery.TagList
	if err := a.getJSON(ctx, "/tags", nil, &tags); err != nil {
		return nil, err
	}
	return &tags, nil
}
