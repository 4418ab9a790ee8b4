package handler

import (
	"net/http"

	"github.com/chargeroute/chargeroute/internal/api/models"
	"github.com/chargeroute/chargeroute/internal/api/response"
	"github.com/chargeroute/chargeroute/internal/planner"
	"github.com/chargeroute/chargeroute/internal/vehicle"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	vehicles *vehicle.Catalog
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler(vehicles *vehicle.Catalog) *MetadataHandler {
	if vehicles == nil {
		vehicles = vehicle.DefaultCatalog()
	}
	return &MetadataHandler{vehicles: vehicles}
}

// ListStrategies handles GET /v1/metadata/strategies.
func (h *MetadataHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	presets := planner.Strategies()
	items := make([]models.StrategyInfo, 0, len(presets))
	for _, s := range presets {
		items = append(items, models.StrategyInfo{
			ID:                string(s.ID),
			Name:              s.Name,
			Description:       s.Description,
			TargetSoCPercent:  s.TargetSoC,
			MinStopSoCPercent: s.MinStopSoC,
			PowerWeight:       s.Weights.Power,
			PriceWeight:       s.Weights.Price,
		})
	}

	response.Cached(w, r, 3600, models.StrategyList{Items: items})
}

// ListVehicles handles GET /v1/metadata/vehicles.
func (h *MetadataHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles := h.vehicles.List()
	items := make([]models.VehicleInfo, 0, len(vehicles))
	for _, v := range vehicles {
		curve := make([]models.CurvePoint, 0, len(v.Curve))
		for _, p := range v.Curve {
			curve = append(curve, models.CurvePoint{SoCPercent: p.SoCPercent, PowerKW: p.PowerKW})
		}
		items = append(items, models.VehicleInfo{
			ID:                  v.ID,
			Name:                v.Name,
			BatteryCapacityKWh:  v.BatteryCapacityKWh,
			ConsumptionKWhPerKm: v.ConsumptionKWhPerKm,
			MaxChargingPowerKW:  v.MaxChargingPowerKW,
			Curve:               curve,
		})
	}

	response.Cached(w, r, 3600, models.VehicleList{Items: items})
}
