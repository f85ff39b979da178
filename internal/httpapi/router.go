package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reunite-dev/reunite/internal/engine"
	"github.com/reunite-dev/reunite/internal/hub"
)

// Server holds the HTTP layer's dependencies and builds the router.
type Server struct {
	engine  *engine.Engine
	hub     *hub.Hub
	logger  *slog.Logger
	limiter *rateLimiter

	uploadsDir string
	metrics    http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithUploadsDir serves stored item photos from dir under /uploads/.
func WithUploadsDir(dir string) Option {
	return func(s *Server) { s.uploadsDir = dir }
}

// WithMetricsHandler mounts the given handler at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithRateLimit enables the per-actor token bucket.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) { s.limiter = newRateLimiter(rps, burst) }
}

// WithLogger overrides the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates the HTTP layer around the engine and the hub.
func NewServer(eng *engine.Engine, h *hub.Hub, opts ...Option) *Server {
	s := &Server{
		engine: eng,
		hub:    h,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases background resources (the rate limiter's cleanup
// goroutine).
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(recoverer)
	r.Use(requestLogger(s.logger))
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Get("/healthz", s.handleHealthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/items", s.handleCreateItem)
		r.Delete("/items/{itemID}", s.handleDeleteItem)
		r.Post("/items/{itemID}/report-lost", s.handleReportLost)

		r.Post("/posts/{postID}/chat", s.handleOpenChat)
		r.Post("/posts/{postID}/resolve", s.handleResolvePost)
		r.Post("/posts/{postID}/view", s.handleRecordView)

		r.Post("/rooms/{roomID}/messages", s.handlePostMessage)

		r.Get("/subscribe", s.handleSubscribe)
	})

	if s.uploadsDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadsDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	return r
}
