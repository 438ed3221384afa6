// Package rest exposes the analysis engine over HTTP.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/observability"
	"github.com/doubletgeekedup/int-dashboard-sub000/pkg/api"
)

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	Verifier       TokenVerifier
	Metrics        *observability.Collector
	Ready          func() bool
}

// NewRouter wires middleware and routes.
func NewRouter(h *Handlers, cfg RouterConfig, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	router := chi.NewRouter()

	router.Use(RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(logger))
	if cfg.Metrics != nil {
		router.Use(observability.MetricsMiddleware(cfg.Metrics))
	}
	if cfg.ServiceName != "" {
		router.Use(observability.TracingMiddleware(cfg.ServiceName))
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	router.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil && !cfg.Ready() {
			api.Success(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		api.Success(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics.Handler())
	}
	router.Get("/swagger/doc.json", api.SwaggerHandler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(cfg.Verifier, logger))

		r.Get("/sources", h.ListSources)
		r.Get("/threads", h.ListThreads)
		r.Get("/schema", h.Schema)
		r.Post("/similarity", h.Similarity)
		r.Post("/chat", h.Chat)

		r.Route("/nodes/{nodeID}", func(r chi.Router) {
			r.Get("/", h.GetNode)
			r.Get("/similar/structural", h.StructuralSimilarity)
			r.Get("/impact", h.Impact)
			r.Get("/impact/graph", h.GraphImpact)
			r.Get("/dependencies", h.Dependencies)
		})
	})

	return router
}
