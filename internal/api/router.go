// Package api provides the HTTP API for ChargeRoute.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/chargeroute/chargeroute/internal/api/handler"
	"github.com/chargeroute/chargeroute/internal/api/middleware"
	"github.com/chargeroute/chargeroute/internal/api/response"
	"github.com/chargeroute/chargeroute/internal/provider/resilience"
	"github.com/chargeroute/chargeroute/internal/routing"
	"github.com/chargeroute/chargeroute/internal/station"
	"github.com/chargeroute/chargeroute/internal/vehicle"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// PlanMetrics records planning outcomes. Nil disables recording.
	PlanMetrics *middleware.PlannerMetrics

	// TokenValidator guards the plan, status, and admin routes.
	TokenValidator middleware.TokenValidator

	// Planner computes trip plans.
	Planner handler.TripPlanner

	// Vehicles backs the metadata endpoints.
	Vehicles *vehicle.Catalog

	// RoutingService and StationService expose caches on ops and admin
	// endpoints and back station discovery.
	RoutingService *routing.Service
	StationService *station.Service

	// Registry reports provider health on the status endpoint.
	Registry *resilience.Registry

	// DB is checked on readiness. Nil when running without persistence.
	DB handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "chargeroute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Registry:  cfg.Registry,
		Routing:   cfg.RoutingService,
		Stations:  cfg.StationService,
		DB:        cfg.DB,
	})
	planHandler := handler.NewPlanHandler(cfg.Planner, cfg.Logger, cfg.PlanMetrics)
	stationHandler := handler.NewStationHandler(cfg.StationService)
	metadataHandler := handler.NewMetadataHandler(cfg.Vehicles)

	caches := make(map[string]handler.CacheInvalidator)
	if cfg.RoutingService != nil {
		caches["routing"] = cfg.RoutingService
	}
	if cfg.StationService != nil {
		caches["stations"] = cfg.StationService
	}
	adminHandler := handler.NewAdminHandler(caches, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.TokenValidator)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/strategies", metadataHandler.ListStrategies)
			r.Get("/vehicles", metadataHandler.ListVehicles)
		})

		// Station discovery (public) - standard rate limiting
		r.With(standardRateLimit).Get("/stations", stationHandler.ListStations)

		// Trip planning - expensive compute, authenticated, strict rate limiting
		r.With(authMiddleware, middleware.RateLimitByUser(middleware.ExpensiveRateLimit)).
			Post("/trips:plan", planHandler.PlanTrip)

		// Admin endpoints (authenticated) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Post("/cache/invalidate", adminHandler.InvalidateCaches)
		})
	})

	// Unknown routes get a problem+json 404 instead of chi's plain text.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, req, "the requested resource does not exist")
	})

	return r
}
