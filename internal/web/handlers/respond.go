package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"media-gallery/internal/domain/gallery"
)

// createdAtLayout renders timestamps as UTC ISO-8601 with milliseconds
const createdAtLayout = "2006-01-02T15:04:05.000Z"

const errInternal = "Internal server error"

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// TagDTO is the wire form of a tag
type TagDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ImageDTO is the wire form of an image
type ImageDTO struct {
	ID        int      `json:"id"`
	URL       string   `json:"url"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	CreatedAt string   `json:"createdAt"`
	Tags      []TagDTO `json:"tags"`
}

// ImagePageDTO is the body of GET /api/images
type ImagePageDTO struct {
	Data       []ImageDTO         `json:"data"`
	Pagination gallery.Pagination `json:"pagination"`
}

// ImageResponse is the body of GET /api/images/{id}
type ImageResponse struct {
	Data ImageDTO `json:"data"`
}

// TagListDTO is the body of GET /api/tags
type TagListDTO struct {
	Data  []TagDTO `json:"data"`
	Total int      `json:"total"`
}

func toTagDTOs(tags []gallery.Tag) []TagDTO {
	out := make([]TagDTO, len(tags))
	for i, t := range tags {
		out[i] = TagDTO{ID: t.ID, Name: t.Name}
	}
	return out
}

func toImageDTO(img *gallery.Image) ImageDTO {
	return ImageDTO{
		ID:        img.ID,
		URL:       img.URL,
		Width:     img.Width,
		Height:    img.Height,
		CreatedAt: formatTimestamp(img.CreatedAt),
		Tags:      toTagDTOs(img.Tags),
	}
}

func toImagePageDTO(page *gallery.ImagePage) ImagePageDTO {
	data := make([]ImageDTO, len(page.Data))
	for i, img := range page.Data {
		data[i] = toImageDTO(img)
	}
	return ImagePageDTO{Data: data, Pagination: page.Pagination}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // Best effort response
}
