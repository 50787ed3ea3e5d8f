package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/platform/database"
	"media-gallery/internal/seed"
)

// TestSuite bundles the containers and repositories of an integration test
type TestSuite struct {
	Containers *TestContainers
	Repos      *database.Repositories
}

// SetupTestSuite starts the containers and builds repositories on them
func SetupTestSuite(ctx context.Context) (*TestSuite, error) {
	containers, err := SetupTestContainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to setup test containers: %w", err)
	}

	return &TestSuite{
		Containers: containers,
		Repos:      database.NewRepositories(containers.DB),
	}, nil
}

// Cleanup cleans up all test resources
func (ts *TestSuite) Cleanup(ctx context.Context) error {
	return ts.Containers.Cleanup(ctx)
}

// ResetData clears the catalogue and the cache
func (ts *TestSuite) ResetData(ctx context.Context) error {
	return ts.Containers.ResetDatabase(ctx)
}

// SeedCatalog runs the seeder with a fixed random source
func (ts *TestSuite) SeedCatalog(ctx context.Context, seedValue int64, opts ...seed.Option) (*seed.Result, error) {
	opts = append([]seed.Option{
		seed.WithRand(rand.New(rand.NewSource(seedValue))),
		seed.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
	}, opts...)

	return seed.New(ts.Repos.Catalog, nil, opts...).Run(ctx)
}

// CountTagged counts images carrying any of names
func CountTagged(images []*gallery.Image, names ...string) int {
	n := 0
	for _, img := range images {
		if img.HasAnyTag(names...) {
			n++
		}
	}
	return n
}

// MakeTestRequest creates an HTTP test request with the given headers
func MakeTestRequest(method, url string, body io.Reader, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, url, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return req
}

// TestingInterface is the subset of testing.T used by the assertions here
type TestingInterface interface {
	Errorf(format string, args ...interface{})
	Helper()
}

// AssertHTTPStatus checks the recorded status code
func AssertHTTPStatus(t TestingInterface, resp *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()
	if resp.Code != expectedStatus {
		t.Errorf("Expected status %d, got %d. Body: %s", expectedStatus, resp.Code, resp.Body.String())
	}
}

// AssertJSONResponse checks the content type and decodes the body into target
func AssertJSONResponse(t TestingInterface, resp *httptest.ResponseRecorder, target interface{}) error {
	t.Helper()
	if !strings.Contains(resp.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Expected JSON response, got %s", resp.Header().Get("Content-Type"))
		return fmt.Errorf("not a JSON response")
	}

	if target != nil {
		if err := json.Unmarshal(resp.Body.Bytes(), target); err != nil {
			t.Errorf("Failed to unmarshal JSON response: %v", err)
			return err
		}
	}
	return nil
}
