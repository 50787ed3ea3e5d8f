package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"media-gallery/internal/config"
	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/observability"
)

// ReadinessCheck probes one dependency for /readyz
type ReadinessCheck func(ctx context.Context) error

// Handler serves the read-only gallery API
type Handler struct {
	images  gallery.ImageService
	tags    gallery.TagService
	config  *config.Config
	logger  *observability.Logger
	checks  map[string]ReadinessCheck
	tracer  trace.Tracer
	metrics *observability.HTTPMetrics
	started time.Time
	now     func() time.Time
}

// Option customises a Handler
type Option func(*Handler)

// WithReadinessChecks registers the dependency probes reported by /readyz
func WithReadinessChecks(checks map[string]func(context.Context) error) Option {
	return func(h *Handler) {
		for name, check := range checks {
			h.checks[name] = check
		}
	}
}

// WithTracing enables server spans
func WithTracing(tracer trace.Tracer) Option {
	return func(h *Handler) { h.tracer = tracer }
}

// WithMetrics enables HTTP metrics
func WithMetrics(metrics *observability.HTTPMetrics) Option {
	return func(h *Handler) { h.metrics = metrics }
}

// WithClock overrides the time source used by /api/health
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
		h.started = now()
	}
}

// New creates the API handler
func New(images gallery.ImageService, tags gallery.TagService, cfg *config.Config, logger *observability.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}

	h := &Handler{
		images:  images,
		tags:    tags,
		config:  cfg,
		logger:  logger,
		checks:  make(map[string]ReadinessCheck),
		started: time.Now(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes builds the router with its middleware stack
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if h.tracer != nil {
		r.Use(observability.TracingMiddleware(h.tracer))
	}
	if h.metrics != nil {
		r.Use(observability.MetricsMiddleware(h.metrics))
	}
	r.Use(observability.AccessLog(h.logger))
	r.Use(h.recoverer)
	r.Use(NewCORS(h.config.CORSOrigins))

	r.NotFound(h.notFoundHandler)
	r.MethodNotAllowed(h.notFoundHandler)

	// Probes
	r.Get("/healthz", h.healthzHandler)
	r.Get("/readyz", h.readyzHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealthHandler)

		r.Get("/images", h.listImagesHandler)
		r.Get("/images/{id}", h.getImageHandler)
		r.Get("/tags", h.listTagsHandler)
	})

	return r
}

func (h *Handler) notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
}
