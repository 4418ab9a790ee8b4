package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/chargeroute/chargeroute/internal/api/models"
	"github.com/chargeroute/chargeroute/internal/api/response"
	"github.com/chargeroute/chargeroute/internal/provider/resilience"
	"github.com/chargeroute/chargeroute/internal/routing"
	"github.com/chargeroute/chargeroute/internal/station"
)

// Pinger verifies connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds the dependencies surfaced by the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Registry reports external provider health.
	Registry *resilience.Registry

	// Routing and Stations report cache statistics.
	Routing  *routing.Service
	Stations *station.Service

	// DB is checked on readiness. Nil when running without persistence.
	DB Pinger
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Fails when
// the database is unreachable; a degraded provider does not block traffic.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cfg.DB.Ping(ctx); err != nil {
			health := models.Health{
				Status: models.HealthStatusFail,
				Time:   models.Timestamp(time.Now()),
				Details: map[string]interface{}{
					"database": err.Error(),
				},
			}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	})
}

// SystemStatus handles GET /v1/ops/status - provider and cache status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())

	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	if h.cfg.Registry != nil {
		for _, p := range h.cfg.Registry.AllHealth() {
			status.Providers = append(status.Providers, toProviderStatus(p))
			if !p.IsHealthy() {
				status.Status = models.HealthStatusDegraded
			}
		}
	}

	if h.cfg.Routing != nil {
		stats := h.cfg.Routing.CacheStats()
		status.Caches = append(status.Caches, models.CacheStatus{
			Name:         "routing",
			TotalEntries: stats.TotalEntries,
			FreshEntries: stats.FreshEntries,
			StaleEntries: stats.StaleEntries,
			Hits:         stats.Hits,
			Misses:       stats.Misses,
		})
	}
	if h.cfg.Stations != nil {
		stats := h.cfg.Stations.CacheStats()
		status.Caches = append(status.Caches, models.CacheStatus{
			Name:         "stations",
			TotalEntries: stats.TotalEntries,
			FreshEntries: stats.FreshEntries,
			StaleEntries: stats.StaleEntries,
			Hits:         stats.Hits,
			Misses:       stats.Misses,
		})
	}

	status.Subsystems = h.subsystemStatuses(r.Context())
	for _, sub := range status.Subsystems {
		if sub.Status == models.HealthStatusFail {
			status.Status = models.HealthStatusDegraded
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) subsystemStatuses(ctx context.Context) []models.SubsystemStatus {
	var subsystems []models.SubsystemStatus

	if h.cfg.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		dbStatus := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
		if err := h.cfg.DB.Ping(pingCtx); err != nil {
			msg := err.Error()
			dbStatus.Status = models.HealthStatusFail
			dbStatus.Detail = &msg
		}
		subsystems = append(subsystems, dbStatus)
	}

	return subsystems
}

func toProviderStatus(p *resilience.ProviderHealth) models.ProviderStatus {
	out := models.ProviderStatus{
		Provider: p.Name,
		Status:   models.HealthStatusOK,
	}

	switch p.CircuitState {
	case gobreaker.StateHalfOpen:
		out.Status = models.HealthStatusDegraded
	case gobreaker.StateOpen:
		out.Status = models.HealthStatusFail
	}

	if p.LastSuccessAt != nil {
		ts := models.Timestamp(*p.LastSuccessAt)
		out.LastSuccessAt = &ts
	}
	if p.LastFailureAt != nil {
		ts := models.Timestamp(*p.LastFailureAt)
		out.LastFailureAt = &ts
	}
	if p.LastError != "" {
		msg := p.LastError
		out.Message = &msg
	}

	return out
}
