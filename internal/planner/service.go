package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/chargeroute/chargeroute/internal/routing"
	"github.com/chargeroute/chargeroute/internal/station"
	"github.com/chargeroute/chargeroute/internal/vehicle"
	"github.com/chargeroute/chargeroute/pkg/polyline"
)

// Directions abstracts the routing layer.
type Directions interface {
	GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error)
}

// StationSource abstracts the station layer.
type StationSource interface {
	AlongRoute(ctx context.Context, route []polyline.Coordinate) ([]station.Resolved, error)
}

// ServiceConfig holds configuration for the planning service.
type ServiceConfig struct {
	// Directions computes the driving route.
	Directions Directions

	// Stations finds charging stations along the route.
	Stations StationSource

	// Vehicles resolves vehicle IDs (default: the built-in catalog).
	Vehicles *vehicle.Catalog

	// Optimizer computes the charging-stop plan (default: New(Config{})).
	Optimizer *Optimizer

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service plans EV trips end to end: route, candidate stations, charging
// stops, and display segments.
type Service struct {
	directions Directions
	stations   StationSource
	vehicles   *vehicle.Catalog
	optimizer  *Optimizer
	logger     zerolog.Logger
}

// NewService creates a new planning service.
func NewService(cfg ServiceConfig) *Service {
	vehicles := cfg.Vehicles
	if vehicles == nil {
		vehicles = vehicle.DefaultCatalog()
	}

	optimizer := cfg.Optimizer
	if optimizer == nil {
		optimizer = New(Config{})
	}

	return &Service{
		directions: cfg.Directions,
		stations:   cfg.Stations,
		vehicles:   vehicles,
		optimizer:  optimizer,
		logger:     cfg.Logger,
	}
}

// TripRequest describes one trip to plan.
type TripRequest struct {
	// Origin and Destination are the trip endpoints.
	Origin      station.Point
	Destination station.Point

	// VehicleID selects a catalog vehicle. Ignored when Vehicle is set.
	VehicleID string

	// Vehicle is a caller-supplied vehicle model. Overrides VehicleID.
	Vehicle *vehicle.Vehicle

	// InitialBatterySoC is the battery percentage at trip start.
	InitialBatterySoC float64

	// MinArrivalSoC is the requested minimum battery at the destination.
	// Zero means the configured default.
	MinArrivalSoC float64

	// Strategy selects the charging preset.
	Strategy StrategyID

	// ConsumptionMultiplier models traffic/terrain amplification. Zero
	// means 1.0.
	ConsumptionMultiplier float64
}

// RouteInfo summarizes the driving route a plan was built on.
type RouteInfo struct {
	DistanceKm           float64
	DriveDurationMinutes int
	GeometryPolyline     string
	Provider             string
}

// TripPlan is a complete planning result.
type TripPlan struct {
	Plan        *Plan
	Segments    []Segment
	Route       RouteInfo
	Vehicle     vehicle.Vehicle
	GeneratedAt time.Time
}

// PlanTrip computes the driving route between the trip endpoints, gathers
// charging stations along it, and runs the optimizer. Station lookup
// failures degrade to planning without candidates rather than failing the
// trip: a trip that needs no stop still plans, and one that does reports
// infeasibility.
func (s *Service) PlanTrip(ctx context.Context, req TripRequest) (*TripPlan, error) {
	v, err := s.resolveVehicle(req)
	if err != nil {
		return nil, err
	}

	directions, err := s.directions.GetDirections(ctx, routing.DirectionsRequest{
		Origin:      routing.Coordinate{Lat: req.Origin.Lat, Lon: req.Origin.Lon},
		Destination: routing.Coordinate{Lat: req.Destination.Lat, Lon: req.Destination.Lon},
		Profile:     routing.ProfileDrive,
	})
	if err != nil {
		return nil, err
	}
	if len(directions.Routes) == 0 {
		return nil, routing.ErrNoRouteFound
	}
	route := directions.Routes[0]

	geometry := polyline.Decode(route.GeometryPolyline)

	candidates, err := s.stations.AlongRoute(ctx, geometry)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("station lookup failed, planning without candidates")
		candidates = nil
	}

	distanceKm := float64(route.DistanceMeters) / 1000.0

	plan, err := s.optimizer.Optimize(Request{
		Vehicle:               v,
		TotalDistanceKm:       distanceKm,
		InitialBatterySoC:     req.InitialBatterySoC,
		MinArrivalSoC:         req.MinArrivalSoC,
		Strategy:              req.Strategy,
		ConsumptionMultiplier: req.ConsumptionMultiplier,
		Candidates:            candidates,
	})
	if err != nil {
		return nil, err
	}

	driveMinutes := (route.DurationSeconds + 30) / 60

	segments := BuildSegments(TripInfo{
		Origin:               req.Origin,
		Destination:          req.Destination,
		Geometry:             geometry,
		DriveDurationMinutes: driveMinutes,
		InitialBatterySoC:    req.InitialBatterySoC,
	}, plan)

	s.logger.Info().
		Str("vehicle", v.ID).
		Str("strategy", string(plan.Strategy)).
		Float64("distance_km", distanceKm).
		Int("stops", len(plan.Stops)).
		Bool("feasible", plan.Feasible).
		Msg("trip planned")

	return &TripPlan{
		Plan:     plan,
		Segments: segments,
		Route: RouteInfo{
			DistanceKm:           distanceKm,
			DriveDurationMinutes: driveMinutes,
			GeometryPolyline:     route.GeometryPolyline,
			Provider:             directions.Provider,
		},
		Vehicle:     v,
		GeneratedAt: time.Now(),
	}, nil
}

// resolveVehicle picks the caller-supplied vehicle or looks one up in the
// catalog.
func (s *Service) resolveVehicle(req TripRequest) (vehicle.Vehicle, error) {
	if req.Vehicle != nil {
		if err := req.Vehicle.Validate(); err != nil {
			return vehicle.Vehicle{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return *req.Vehicle, nil
	}
	return s.vehicles.Get(req.VehicleID)
}

// Vehicles lists the catalog vehicles for metadata endpoints.
func (s *Service) Vehicles() []vehicle.Vehicle {
	return s.vehicles.List()
}
