// Package handler provides HTTP handlers for the ChargeRoute API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chargeroute/chargeroute/internal/api/middleware"
	"github.com/chargeroute/chargeroute/internal/api/models"
	"github.com/chargeroute/chargeroute/internal/api/response"
	"github.com/chargeroute/chargeroute/internal/planner"
	"github.com/chargeroute/chargeroute/internal/station"
	"github.com/chargeroute/chargeroute/internal/vehicle"
)

// TripPlanner is the planning service surface the handler needs.
type TripPlanner interface {
	PlanTrip(ctx context.Context, req planner.TripRequest) (*planner.TripPlan, error)
}

// PlanHandler handles trip planning endpoints.
type PlanHandler struct {
	planner TripPlanner
	logger  zerolog.Logger
	metrics *middleware.PlannerMetrics
}

// NewPlanHandler creates a new PlanHandler. metrics may be nil.
func NewPlanHandler(p TripPlanner, logger zerolog.Logger, metrics *middleware.PlannerMetrics) *PlanHandler {
	return &PlanHandler{planner: p, logger: logger, metrics: metrics}
}

// PlanTrip handles POST /v1/trips:plan. An infeasible trip is a domain
// outcome and returns 200 with feasible:false; only malformed input is an
// HTTP error.
func (h *PlanHandler) PlanTrip(w http.ResponseWriter, r *http.Request) {
	var input models.TripPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrors := validatePlanInput(&input); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid planning request", fieldErrors)
		return
	}

	req := planner.TripRequest{
		Origin:                station.Point{Lat: input.Origin.Lat, Lon: input.Origin.Lon},
		Destination:           station.Point{Lat: input.Destination.Lat, Lon: input.Destination.Lon},
		VehicleID:             input.VehicleID,
		InitialBatterySoC:     input.InitialBatteryPercent,
		MinArrivalSoC:         input.MinArrivalBatteryPercent,
		Strategy:              strategyOrDefault(input.Strategy),
		ConsumptionMultiplier: input.ConsumptionMultiplier,
	}
	if input.Vehicle != nil {
		req.Vehicle = toDomainVehicle(input.Vehicle)
	}

	start := time.Now()
	result, err := h.planner.PlanTrip(r.Context(), req)
	if err != nil {
		h.writePlanError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPlan(string(req.Strategy), result.Plan.Feasible, len(result.Plan.Stops), time.Since(start))
	}

	response.JSON(w, r, http.StatusOK, toPlanResponse(result))
}

func (h *PlanHandler) writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, vehicle.ErrVehicleNotFound):
		response.BadRequest(w, r, "unknown vehicle", []models.FieldError{
			{Field: "vehicleId", Message: "not in the vehicle catalog"},
		})
	case errors.Is(err, planner.ErrUnknownStrategy):
		response.BadRequest(w, r, "unknown strategy", []models.FieldError{
			{Field: "strategy", Message: "must be one of few_long, balanced, many_short"},
		})
	case errors.Is(err, planner.ErrInvalidInput):
		response.BadRequest(w, r, err.Error(), nil)
	default:
		h.logger.Error().Err(err).Msg("trip planning failed")
		response.ServiceUnavailable(w, r, "trip planning is temporarily unavailable")
	}
}

// validatePlanInput checks the request contract before it reaches the
// domain layer, so clients get field-level errors.
func validatePlanInput(input *models.TripPlanRequest) []models.FieldError {
	var errs []models.FieldError

	errs = append(errs, validatePoint(input.Origin, "origin")...)
	errs = append(errs, validatePoint(input.Destination, "destination")...)

	if input.VehicleID == "" && input.Vehicle == nil {
		errs = append(errs, models.FieldError{
			Field: "vehicleId", Message: "required unless an inline vehicle is provided",
		})
	}
	if input.Vehicle != nil {
		if input.Vehicle.BatteryCapacityKWh <= 0 {
			errs = append(errs, models.FieldError{
				Field: "vehicle.batteryCapacityKWh", Message: "must be positive",
			})
		}
		if input.Vehicle.ConsumptionKWhPerKm <= 0 {
			errs = append(errs, models.FieldError{
				Field: "vehicle.consumptionKWhPerKm", Message: "must be positive",
			})
		}
		if len(input.Vehicle.Curve) == 0 {
			errs = append(errs, models.FieldError{
				Field: "vehicle.chargeCurve", Message: "is required",
			})
		}
	}

	if input.InitialBatteryPercent <= 0 || input.InitialBatteryPercent > 100 {
		errs = append(errs, models.FieldError{
			Field: "initialBatteryPercent", Message: "must be between 0 and 100",
		})
	}
	if input.MinArrivalBatteryPercent < 0 || input.MinArrivalBatteryPercent > 100 {
		errs = append(errs, models.FieldError{
			Field: "minArrivalBatteryPercent", Message: "must be between 0 and 100",
		})
	}
	if input.ConsumptionMultiplier != 0 && input.ConsumptionMultiplier < 1 {
		errs = append(errs, models.FieldError{
			Field: "consumptionMultiplier", Message: "must be at least 1.0",
		})
	}

	return errs
}

func validatePoint(p *models.Point, prefix string) []models.FieldError {
	if p == nil {
		return []models.FieldError{{Field: prefix, Message: "is required"}}
	}

	var errs []models.FieldError
	if p.Lat < -90 || p.Lat > 90 {
		errs = append(errs, models.FieldError{
			Field: prefix + ".lat", Message: "must be between -90 and 90",
		})
	}
	if p.Lon < -180 || p.Lon > 180 {
		errs = append(errs, models.FieldError{
			Field: prefix + ".lon", Message: "must be between -180 and 180",
		})
	}
	return errs
}

func strategyOrDefault(s string) planner.StrategyID {
	if s == "" {
		return planner.StrategyBalanced
	}
	return planner.StrategyID(s)
}

func toDomainVehicle(spec *models.VehicleSpec) *vehicle.Vehicle {
	curve := make(vehicle.ChargeCurve, 0, len(spec.Curve))
	for _, p := range spec.Curve {
		curve = append(curve, vehicle.CurvePoint{SoCPercent: p.SoCPercent, PowerKW: p.PowerKW})
	}
	return &vehicle.Vehicle{
		Name:                spec.Name,
		BatteryCapacityKWh:  spec.BatteryCapacityKWh,
		ConsumptionKWhPerKm: spec.ConsumptionKWhPerKm,
		MaxChargingPowerKW:  spec.MaxChargingPowerKW,
		Curve:               curve,
	}
}

func toPlanResponse(result *planner.TripPlan) models.TripPlanResponse {
	plan := result.Plan

	stops := make([]models.ChargingStop, 0, len(plan.Stops))
	for i := range plan.Stops {
		stops = append(stops, toChargingStop(&plan.Stops[i]))
	}

	segments := make([]models.TripSegment, 0, len(result.Segments))
	for i := range result.Segments {
		segments = append(segments, toTripSegment(&result.Segments[i]))
	}

	resp := models.TripPlanResponse{
		PlanID:      "plan_" + uuid.New().String()[:12],
		GeneratedAt: models.Timestamp(result.GeneratedAt),
		Strategy:    string(plan.Strategy),
		Route: models.RouteSummary{
			DistanceKm:           result.Route.DistanceKm,
			DriveDurationMinutes: result.Route.DriveDurationMinutes,
			Geometry:             result.Route.GeometryPolyline,
			Provider:             result.Route.Provider,
		},
		Vehicle: models.VehicleRef{
			ID:                 result.Vehicle.ID,
			Name:               result.Vehicle.Name,
			BatteryCapacityKWh: result.Vehicle.BatteryCapacityKWh,
		},
		Feasible:            plan.Feasible,
		Stops:               stops,
		Segments:            segments,
		FinalBatteryPercent: plan.FinalBatterySoC,
		Totals: models.TripTotals{
			DistanceKm:           plan.TotalDistanceKm,
			DriveDurationMinutes: result.Route.DriveDurationMinutes,
			ChargingMinutes:      plan.TotalChargingMinutes,
			TripDurationMinutes:  result.Route.DriveDurationMinutes + plan.TotalChargingMinutes,
			Cost:                 plan.TotalCost,
			Stops:                len(plan.Stops),
		},
	}

	if plan.Infeasibility != nil {
		resp.Infeasibility = &models.InfeasibilityInfo{
			Code:      plan.Infeasibility.Code,
			Message:   plan.Infeasibility.Message,
			AtKm:      plan.Infeasibility.AtKm,
			StopIndex: plan.Infeasibility.StopIndex,
		}
	}

	return resp
}

func toChargingStop(stop *planner.Stop) models.ChargingStop {
	return models.ChargingStop{
		Station:                 toStopStation(&stop.Station),
		DistanceKm:              stop.DistanceKm,
		ArrivalBatteryPercent:   stop.ArrivalSoC,
		DepartureBatteryPercent: stop.DepartureSoC,
		ChargingMinutes:         stop.ChargingMinutes,
		EnergyKWh:               stop.EnergyKWh,
		Cost:                    stop.Cost,
		Reason:                  stop.Reason,
	}
}

func toStopStation(resolved *station.Resolved) models.StopStation {
	return models.StopStation{
		ID:            resolved.Station.ID,
		Name:          resolved.Station.Name,
		Operator:      resolved.Station.Operator,
		Point:         models.Point{Lat: resolved.Station.Position.Lat, Lon: resolved.Station.Position.Lon},
		PowerKW:       resolved.Station.PowerKW,
		PricePerKWh:   resolved.PricePerKWh,
		ConnectionFee: resolved.ConnectionFee,
		SpeedLabel:    resolved.SpeedLabel,
	}
}

func toTripSegment(seg *planner.Segment) models.TripSegment {
	out := models.TripSegment{
		Type:              string(seg.Type),
		Position:          models.Point{Lat: seg.Position.Lat, Lon: seg.Position.Lon},
		DistanceKm:        seg.DistanceKm,
		CumulativeKm:      seg.CumulativeKm,
		DurationMinutes:   seg.DurationMinutes,
		CumulativeMinutes: seg.CumulativeMinutes,
		BatteryPercent:    seg.BatterySoC,
		DeparturePercent:  seg.DepartureSoC,
		ChargingMinutes:   seg.ChargingMinutes,
	}
	if seg.Station != nil {
		st := toStopStation(seg.Station)
		out.Station = &st
	}
	return out
}
