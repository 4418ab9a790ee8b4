package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargeroute/chargeroute/internal/routing"
	"github.com/chargeroute/chargeroute/internal/station"
	"github.com/chargeroute/chargeroute/internal/vehicle"
	"github.com/chargeroute/chargeroute/pkg/polyline"
)

type mockDirections struct {
	resp    *routing.DirectionsResponse
	err     error
	lastReq routing.DirectionsRequest
	calls   int
}

func (m *mockDirections) GetDirections(_ context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type mockStations struct {
	resolved []station.Resolved
	err      error
	calls    int
}

func (m *mockStations) AlongRoute(_ context.Context, _ []polyline.Coordinate) ([]station.Resolved, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.resolved, nil
}

// testDirections returns a 400 km, 5 hour drive on a straight north-bound
// line, geometry encoded the way the routing provider delivers it.
func testDirections() *routing.DirectionsResponse {
	geometry := polyline.Encode([]polyline.Coordinate{
		{Lat: 14.5995, Lon: 120.9842},
		{Lat: 15.5000, Lon: 120.8000},
		{Lat: 16.4023, Lon: 120.5960},
	})
	return &routing.DirectionsResponse{
		Routes: []routing.Route{
			{
				GeometryPolyline: geometry,
				DistanceMeters:   400000,
				DurationSeconds:  18000,
			},
		},
		Provider: "openrouteservice",
	}
}

func testTripRequest() TripRequest {
	return TripRequest{
		Origin:            station.Point{Lat: 14.5995, Lon: 120.9842},
		Destination:       station.Point{Lat: 16.4023, Lon: 120.5960},
		VehicleID:         "veh_model3_lr",
		InitialBatterySoC: 80,
		MinArrivalSoC:     25,
		Strategy:          StrategyBalanced,
	}
}

func TestService_PlanTrip_Success(t *testing.T) {
	directions := &mockDirections{resp: testDirections()}
	stations := &mockStations{resolved: []station.Resolved{
		candidateAt(200, 150, 33),
	}}

	svc := NewService(ServiceConfig{
		Directions: directions,
		Stations:   stations,
	})

	result, err := svc.PlanTrip(context.Background(), testTripRequest())
	require.NoError(t, err)

	assert.Equal(t, routing.ProfileDrive, directions.lastReq.Profile)
	assert.Equal(t, 1, stations.calls)

	require.True(t, result.Plan.Feasible)
	require.Len(t, result.Plan.Stops, 1)
	assert.Equal(t, 200.0, result.Plan.Stops[0].DistanceKm)

	// start, travel, charging, travel, destination
	require.Len(t, result.Segments, 5)
	assert.Equal(t, SegmentCharging, result.Segments[2].Type)

	assert.Equal(t, 400.0, result.Route.DistanceKm)
	assert.Equal(t, 300, result.Route.DriveDurationMinutes)
	assert.Equal(t, "openrouteservice", result.Route.Provider)
	assert.Equal(t, "veh_model3_lr", result.Vehicle.ID)
	assert.False(t, result.GeneratedAt.IsZero())
}

func TestService_PlanTrip_UnknownVehicle(t *testing.T) {
	svc := NewService(ServiceConfig{
		Directions: &mockDirections{resp: testDirections()},
		Stations:   &mockStations{},
	})

	req := testTripRequest()
	req.VehicleID = "veh_unknown"

	_, err := svc.PlanTrip(context.Background(), req)
	assert.ErrorIs(t, err, vehicle.ErrVehicleNotFound)
}

func TestService_PlanTrip_CustomVehicle(t *testing.T) {
	directions := &mockDirections{resp: testDirections()}
	svc := NewService(ServiceConfig{
		Directions: directions,
		Stations:   &mockStations{resolved: []station.Resolved{candidateAt(200, 150, 33)}},
	})

	custom := testVehicle()
	custom.ID = ""

	req := testTripRequest()
	req.VehicleID = "veh_unknown" // ignored when Vehicle is set
	req.Vehicle = &custom

	result, err := svc.PlanTrip(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, result.Vehicle.ID)
	assert.Equal(t, custom.BatteryCapacityKWh, result.Vehicle.BatteryCapacityKWh)
}

func TestService_PlanTrip_InvalidCustomVehicle(t *testing.T) {
	svc := NewService(ServiceConfig{
		Directions: &mockDirections{resp: testDirections()},
		Stations:   &mockStations{},
	})

	custom := testVehicle()
	custom.Curve = nil

	req := testTripRequest()
	req.Vehicle = &custom

	_, err := svc.PlanTrip(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_PlanTrip_RoutingError(t *testing.T) {
	wantErr := errors.New("provider down")
	svc := NewService(ServiceConfig{
		Directions: &mockDirections{err: wantErr},
		Stations:   &mockStations{},
	})

	_, err := svc.PlanTrip(context.Background(), testTripRequest())
	assert.ErrorIs(t, err, wantErr)
}

func TestService_PlanTrip_NoRoute(t *testing.T) {
	svc := NewService(ServiceConfig{
		Directions: &mockDirections{resp: &routing.DirectionsResponse{Provider: "openrouteservice"}},
		Stations:   &mockStations{},
	})

	_, err := svc.PlanTrip(context.Background(), testTripRequest())
	assert.ErrorIs(t, err, routing.ErrNoRouteFound)
}

func TestService_PlanTrip_StationLookupFailureDegrades(t *testing.T) {
	directions := &mockDirections{resp: testDirections()}
	directions.resp.Routes[0].DistanceMeters = 200000

	svc := NewService(ServiceConfig{
		Directions: directions,
		Stations:   &mockStations{err: errors.New("provider unavailable")},
	})

	// 200 km on 80% needs no stop, so the trip still plans.
	result, err := svc.PlanTrip(context.Background(), testTripRequest())
	require.NoError(t, err)
	assert.True(t, result.Plan.Feasible)
	assert.Empty(t, result.Plan.Stops)
}

func TestService_PlanTrip_NoStationsMeansInfeasibleNotError(t *testing.T) {
	svc := NewService(ServiceConfig{
		Directions: &mockDirections{resp: testDirections()},
		Stations:   &mockStations{err: errors.New("provider unavailable")},
	})

	// 400 km needs a stop, and no candidates survive the lookup failure.
	result, err := svc.PlanTrip(context.Background(), testTripRequest())
	require.NoError(t, err)
	require.False(t, result.Plan.Feasible)
	assert.Equal(t, CodeNoStation, result.Plan.Infeasibility.Code)
}

func TestService_Vehicles(t *testing.T) {
	svc := NewService(ServiceConfig{
		Directions: &mockDirections{},
		Stations:   &mockStations{},
	})

	vehicles := svc.Vehicles()
	require.NotEmpty(t, vehicles)
	assert.Equal(t, "veh_ioniq5_lr", vehicles[0].ID)
}
