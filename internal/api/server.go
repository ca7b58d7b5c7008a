// Package api serves the catalog's HTML pages and its JSON API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/NickLinnik/LocalLibrary/internal/metrics"
	"github.com/NickLinnik/LocalLibrary/internal/service"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports how many documents the search index holds.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Services groups what the handlers call into.
type Services struct {
	Catalog *service.Catalog
	Auth    *service.AuthService
	// Optional health probes.
	DB     Pinger
	Search DocumentCounter
}

// Options tunes the HTTP surface.
type Options struct {
	CookieName   string
	SecureCookie bool
	// CORSOrigins are allowed to call /api/v1. Empty allows none.
	CORSOrigins []string
	// Metrics enables request metrics and /metrics when set.
	Metrics *metrics.Metrics
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	opts     Options
	router   *chi.Mux
	api      huma.API
	pages    *renderer
	logger   *slog.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CookieName == "" {
		opts.CookieName = "locallibrary_session"
	}

	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		services: services,
		opts:     opts,
		router:   chi.NewRouter(),
		pages:    pages,
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.StripSlashes)
	if s.opts.Metrics != nil {
		s.router.Use(s.opts.Metrics.Middleware)
	}
	s.router.Use(apiCORS(s.opts.CORSOrigins))
	s.router.Use(apiOnly(s.bearerMiddleware))
}

// apiCORS applies CORS headers to /api/ requests only. It runs before
// routing so preflight requests are answered even though no OPTIONS
// routes exist.
func apiCORS(origins []string) func(http.Handler) http.Handler {
	handler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	return apiOnly(handler)
}

// apiOnly runs mw for /api/ requests and skips it elsewhere.
func apiOnly(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)
	if s.opts.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderStatus(w, r, http.StatusNotFound, "Page not found.")
	})

	// HTML pages run inside a browser session.
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)
		s.registerPageRoutes(r)
	})

	// JSON API, authenticated by Bearer session tokens (see apiOnly).
	config := huma.DefaultConfig("LocalLibrary API", "1.0.0")
	config.OpenAPIPath = "/api/v1/openapi"
	config.DocsPath = "/api/v1/docs"
	config.SchemasPath = "/api/v1/schemas"
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	config.Transformers = append(config.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, config)
	RegisterErrorHandler()
	s.registerAPIRoutes()
}
