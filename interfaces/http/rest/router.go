// Package rest wires the local board API: routing, middleware, and the
// HTTP handlers over the command and query buses.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"widgetboard/application/commands/bus"
	querybus "widgetboard/application/queries/bus"
	"widgetboard/application/services"
	"widgetboard/infrastructure/config"
	"widgetboard/interfaces/http/rest/handlers"
	"widgetboard/interfaces/http/rest/middleware"
	"widgetboard/pkg/ratelimit"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg        *config.Config
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	widgets    *services.WidgetService
	boards     *services.BoardService
	edges      *services.EdgeService
	limiter    ratelimit.Limiter
	registry   *prometheus.Registry
	clientID   string
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	widgets *services.WidgetService,
	boards *services.BoardService,
	edges *services.EdgeService,
	limiter ratelimit.Limiter,
	registry *prometheus.Registry,
	clientID string,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:        cfg,
		commandBus: commandBus,
		queryBus:   queryBus,
		widgets:    widgets,
		boards:     boards,
		edges:      edges,
		limiter:    limiter,
		registry:   registry,
		clientID:   clientID,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.ClientIdentity(rt.clientID))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.cfg.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(rt.limiter))

		boardHandler := handlers.NewBoardHandler(rt.commandBus, rt.queryBus, rt.logger)
		widgetHandler := handlers.NewWidgetHandler(rt.commandBus, rt.queryBus, rt.widgets, rt.logger)
		edgeHandler := handlers.NewEdgeHandler(rt.commandBus, rt.edges, rt.logger)

		// Board endpoints
		r.Route("/board", func(r chi.Router) {
			r.Get("/", boardHandler.GetBoard)
			r.Post("/sync", boardHandler.SyncBoard)
			r.Put("/viewport", boardHandler.SetViewport)
		})

		// Node endpoints
		r.Route("/nodes/{nodeID}", func(r chi.Router) {
			r.Put("/position", boardHandler.MoveNode)
			r.Put("/size", boardHandler.ResizeNode)
			r.Put("/draft", boardHandler.UpdateDraft)
			r.Post("/mode", widgetHandler.ChangeMode)
			r.Post("/save", widgetHandler.Save)
			r.Post("/vote", widgetHandler.Vote)
			r.Post("/unvote", widgetHandler.Unvote)
			r.Post("/attempts", widgetHandler.SubmitAttempt)
			r.Get("/entity", widgetHandler.GetEntity)
			r.Delete("/entity", widgetHandler.DeleteEntity)
		})

		// Edge endpoints
		r.Route("/edges", func(r chi.Router) {
			r.Post("/", edgeHandler.CreateEdge)
			r.Get("/dangling", edgeHandler.ListDangling)
			r.Post("/prune", edgeHandler.PruneDangling)
			r.Delete("/{edgeID}", edgeHandler.DeleteEdge)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready once the initial board load has finished.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !rt.boards.Loaded() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"loading"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
