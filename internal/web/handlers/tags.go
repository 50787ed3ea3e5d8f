package handlers

import "net/http"

// listTagsHandler serves GET /api/tags
func (h *Handler) listTagsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.tags.ListTags(r.Context())
	if err != nil {
		h.internalError(w, r, err, "Failed to fetch tags")
		return
	}

	writeJSON(w, http.StatusOK, TagListDTO{Data: toTagDTOs(list.Data), Total: list.Total})
}
