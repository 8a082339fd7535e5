// Package rest assembles the HTTP router for the story editor API.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"silkmaker-backend/internal/infrastructure/observability"
	"silkmaker-backend/internal/interfaces/http/handlers"
	"silkmaker-backend/internal/middleware"
	"silkmaker-backend/internal/service/story"
)

// Options configures the router.
type Options struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	RequestTimeout time.Duration
	// EnableTracing wraps every request in a server span.
	EnableTracing bool
	// Breaker guards /api routes. A zero Name disables it.
	Breaker middleware.CircuitBreakerConfig
}

// Router creates and configures the HTTP router
type Router struct {
	svc       story.Service
	store     handlers.Pinger
	collector *observability.Collector
	logger    *zap.Logger
	opts      Options
}

// NewRouter creates a new router instance. collector may be nil.
func NewRouter(svc story.Service, store handlers.Pinger, collector *observability.Collector, logger *zap.Logger, opts Options) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{svc: svc, store: store, collector: collector, logger: logger, opts: opts}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	// Logger wraps Recovery so that recovered panics are logged as 500s.
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Recovery(rt.logger))
	if rt.opts.EnableTracing {
		router.Use(observability.TracingMiddleware(rt.opts.ServiceName))
	}
	if rt.collector != nil {
		router.Use(observability.MetricsMiddleware(rt.collector))
	}

	origins := rt.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(rt.store, rt.opts.Version, rt.logger)
	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)
	if rt.collector != nil {
		router.Handle("/metrics", rt.collector.Handler())
	}

	router.Route("/api/projects", func(r chi.Router) {
		r.Use(middleware.Timeout(rt.opts.RequestTimeout, rt.logger))
		if rt.opts.Breaker.Name != "" {
			r.Use(middleware.CircuitBreaker(rt.opts.Breaker, rt.logger))
		}

		projects := handlers.NewProjectHandler(rt.svc, rt.logger)
		nodes := handlers.NewNodeHandler(rt.svc, rt.logger)
		groups := handlers.NewGroupHandler(rt.svc, rt.logger)
		assets := handlers.NewAssetHandler(rt.svc, rt.logger)
		exports := handlers.NewExportHandler(rt.svc, rt.logger)

		r.Get("/", projects.ListProjects)
		r.Post("/", projects.CreateProject)

		r.Route("/{projectId}", func(r chi.Router) {
			r.Get("/", projects.GetProject)
			r.Put("/", projects.UpdateProject)
			r.Delete("/", projects.DeleteProject)
			r.Get("/stats", projects.GetStats)
			r.Post("/export", exports.Export)

			r.Route("/nodes", func(r chi.Router) {
				r.Get("/", nodes.ListNodes)
				r.Post("/", nodes.CreateNode)
				r.Get("/{nodeId}", nodes.GetNode)
				r.Get("/{nodeId}/connections", nodes.GetConnections)
				r.Put("/{nodeId}", nodes.UpdateNode)
				r.Delete("/{nodeId}", nodes.DeleteNode)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", groups.ListGroups)
				r.Post("/", groups.CreateGroup)
				r.Put("/{groupId}", groups.UpdateGroup)
				r.Delete("/{groupId}", groups.DeleteGroup)
			})

			r.Route("/assets", func(r chi.Router) {
				r.Get("/", assets.ListAssets)
				r.Post("/", assets.CreateAsset)
				r.Delete("/{assetId}", assets.DeleteAsset)
			})
		})
	})

	return router
}
