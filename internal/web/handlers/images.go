package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"media-gallery/internal/domain/gallery"
)

// listImagesHandler serves GET /api/images?page&limit&tags
func (h *Handler) listImagesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := gallery.ListImagesRequest{
		Page:  queryInt(q.Get("page")),
		Limit: queryInt(q.Get("limit")),
		Tags:  gallery.ParseTagList(q.Get("tags")),
	}

	page, err := h.images.ListImages(r.Context(), req)
	if err != nil {
		h.internalError(w, r, err, "Failed to fetch images")
		return
	}

	writeJSON(w, http.StatusOK, toImagePageDTO(page))
}

// getImageHandler serves GET /api/images/{id}
func (h *Handler) getImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := gallery.ParseImageID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid image ID"})
		return
	}

	img, err := h.images.GetImage(r.Context(), id)
	switch {
	case errors.Is(err, gallery.ErrImageNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Image not found"})
	case err != nil:
		h.internalError(w, r, err, "Failed to fetch image")
	default:
		writeJSON(w, http.StatusOK, ImageResponse{Data: toImageDTO(img)})
	}
}

// queryInt parses a paging parameter; anything unparsable reads as 0,
// which the request normalisation turns into the default
func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// internalError logs err, marks the active span failed and answers 500
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	span.SetStatus(codes.Error, message)

	h.logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg(message)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errInternal, Message: message})
}
