package gallery

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Image is a gallery entry with its full tag list
type Image struct {
	ID        int       `json:"id"`
	URL       string    `json:"url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"createdAt"`
	Tags      []Tag     `json:"tags"`
}

// Tag is a genre label; Name is unique and is the filter key
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ListImagesRequest holds the paging and filter input of an image listing.
// Zero Page or Limit means "not provided".
type ListImagesRequest struct {
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
	Tags  []string `json:"tags,omitempty"`
}

// Pagination describes where an ImagePage sits in the filtered result set
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// ImagePage is one page of a filtered image listing
type ImagePage struct {
	Data       []*Image   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TagList is the complete tag catalogue
type TagList struct {
	Data  []Tag `json:"data"`
	Total int   `json:"total"`
}

// Paging limits
const (
	DefaultPage  = 1
	DefaultLimit = 12
	MinLimit     = 1
	MaxLimit     = 50
	// MaxPage keeps Offset within int for every allowed limit
	MaxPage = math.MaxInt/MaxLimit + 1
)

// AllTags is the pseudo tag name that clears every active filter
const AllTags = "__all__"

// Tag name limits
const (
	MinTagNameLen = 1
	MaxTagNameLen = 50
)

// Domain errors
var (
	ErrImageNotFound    = errors.New("image not found")
	ErrInvalidImageID   = errors.New("invalid image ID")
	ErrInvalidImage     = errors.New("invalid image")
	ErrInvalidTagName   = errors.New("invalid tag name")
	ErrCacheMiss        = errors.New("cache miss")
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// Normalize applies defaults and clamps the request to its valid range.
// Tag names are trimmed, empties dropped and duplicates removed.
func (r *ListImagesRequest) Normalize() {
	if r.Page == 0 {
		r.Page = DefaultPage
	}
	r.Page = max(1, min(MaxPage, r.Page))

	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
	r.Limit = max(MinLimit, min(MaxLimit, r.Limit))

	r.Tags = CleanTagNames(r.Tags)
}

// Offset returns the number of rows to skip for the requested page
func (r ListImagesRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// HasFilter reports whether the request restricts images by tag
func (r ListImagesRequest) HasFilter() bool {
	return len(r.Tags) > 0
}

// CacheKey returns a key that is identical for requests selecting the same
// rows, regardless of tag order
func (r ListImagesRequest) CacheKey() string {
	tags := slices.Clone(r.Tags)
	sort.Strings(tags)
	escaped := make([]string, len(tags))
	for i, t := range tags {
		escaped[i] = url.QueryEscape(t)
	}
	return fmt.Sprintf("page_%d_limit_%d_tags_%s", r.Page, r.Limit, strings.Join(escaped, ","))
}

// NewPagination derives page counts from the filtered total
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// CleanTagNames trims names, drops empties and removes exact duplicates
// while keeping the first occurrence order
func CleanTagNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// ParseTagList splits a comma separated tag query value
func ParseTagList(raw string) []string {
	if raw == "" {
		return nil
	}
	return CleanTagNames(strings.Split(raw, ","))
}

// ParseImageID parses a path identifier as a base-10 integer
func ParseImageID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidImageID, raw)
	}
	return id, nil
}

// Validate checks the invariants of a stored image
func (i *Image) Validate() error {
	if strings.TrimSpace(i.URL) == "" {
		return fmt.Errorf("%w: url cannot be empty", ErrInvalidImage)
	}
	if i.Width <= 0 || i.Height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidImage, i.Width, i.Height)
	}

	seen := make(map[string]struct{}, len(i.Tags))
	for _, tag := range i.Tags {
		if _, ok := seen[tag.Name]; ok {
			return fmt.Errorf("%w: duplicate tag %s", ErrInvalidImage, tag.Name)
		}
		seen[tag.Name] = struct{}{}
	}
	return nil
}

// HasAnyTag reports whether the image carries at least one of names
func (i *Image) HasAnyTag(names ...string) bool {
	for _, tag := range i.Tags {
		if slices.Contains(names, tag.Name) {
			return true
		}
	}
	return false
}

// TagNames returns the names of the image tags in stored order
func (i *Image) TagNames() []string {
	names := make([]string, len(i.Tags))
	for idx, tag := range i.Tags {
		names[idx] = tag.Name
	}
	return names
}

// Validate checks that the tag name is a lowercase genre slug
func (t *Tag) Validate() error {
	if len(t.Name) < MinTagNameLen || len(t.Name) > MaxTagNameLen {
		return fmt.Errorf("%w: tag name length must be between %d and %d characters", ErrInvalidTagName, MinTagNameLen, MaxTagNameLen)
	}
	if !utf8.ValidString(t.Name) {
		return fmt.Errorf("%w: tag name contains invalid UTF-8", ErrInvalidTagName)
	}
	for _, r := range t.Name {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return fmt.Errorf("%w: tag name can only contain lowercase letters, numbers, and hyphens", ErrInvalidTagName)
		}
	}
	return nil
}

// NewTag creates a new tag with a normalised, validated name
func NewTag(name string) (*Tag, error) {
	tag := &Tag{Name: strings.TrimSpace(strings.ToLower(name))}
	if err := tag.Validate(); err != nil {
		return nil, err
	}
	return tag, nil
}
