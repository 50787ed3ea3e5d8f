package handlers

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"slices"

	"github.com/rs/cors"
)

// NewCORS returns a middleware allowing GET requests with credentials from
// allowedOrigins. Each entry is a full origin (scheme + host). A "*" entry
// allows any origin and turns credentials off.
func NewCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: !slices.Contains(allowedOrigins, "*"),
	})
	return c.Handler
}

// recoverer turns a handler panic into a 500 JSON response. The panic value
// is only exposed in development.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler { //nolint:errorlint // Sentinel comparison as documented by net/http
				panic(rvr)
			}

			detail := fmt.Sprint(rvr)
			h.logger.Error(r.Context()).
				Str("panic", detail).
				Bytes("stack", debug.Stack()).
				Str("path", r.URL.Path).
				Msg("Unhandled error")

			body := errorResponse{Error: errInternal}
			if h.config != nil && h.config.IsDevelopment() {
				body.Message = detail
			}
			writeJSON(w, http.StatusInternalServerError, body)
		}()

		next.ServeHTTP(w, r)
	})
}
