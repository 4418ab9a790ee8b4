package planner

import (
	"github.com/chargeroute/chargeroute/internal/station"
	"github.com/chargeroute/chargeroute/pkg/polyline"
)

// SegmentType classifies a route segment for display.
type SegmentType string

// Segment types.
const (
	SegmentStart    SegmentType = "start"
	SegmentTravel   SegmentType = "travel"
	SegmentCharging SegmentType = "charging_station"
	SegmentEnd      SegmentType = "destination"
)

// TripInfo is the route context the segment builder needs beyond the plan
// itself.
type TripInfo struct {
	// Origin and Destination are the trip endpoints.
	Origin      station.Point
	Destination station.Point

	// Geometry is the route polyline, used only to place intermediate
	// segment positions.
	Geometry []polyline.Coordinate

	// DriveDurationMinutes is the route's total driving time.
	DriveDurationMinutes int

	// InitialBatterySoC is the battery percentage at trip start.
	InitialBatterySoC float64
}

// Segment is one display-oriented piece of the trip. Battery values are
// copied from the plan's stops, never recomputed, so the displayed numbers
// and the feasibility determination cannot disagree.
type Segment struct {
	// Type classifies the segment.
	Type SegmentType

	// Position is the segment's location on the route.
	Position station.Point

	// DistanceKm is this segment's own travel distance (zero for
	// non-travel segments).
	DistanceKm float64

	// CumulativeKm is the distance from trip start at the segment's end.
	CumulativeKm float64

	// DurationMinutes is this segment's own duration: a proportional share
	// of the drive time for travel segments, the charge time for charging
	// segments.
	DurationMinutes int

	// CumulativeMinutes is elapsed trip time at the segment's end.
	CumulativeMinutes int

	// BatterySoC is the battery percentage on arrival at the segment's end.
	BatterySoC float64

	// DepartureSoC is the battery after charging. Set on charging segments
	// only.
	DepartureSoC float64

	// Station is the charging station. Set on charging segments only.
	Station *station.Resolved

	// ChargingMinutes is the charge duration. Set on charging segments only.
	ChargingMinutes int
}

// BuildSegments converts a completed plan into an ordered segment list:
// start, then travel/charging pairs per stop, then the final travel leg
// and the destination. Pure transformation, safe on infeasible plans too
// (it renders the partial plan up to the failure).
func BuildSegments(trip TripInfo, plan *Plan) []Segment {
	segments := make([]Segment, 0, 2*len(plan.Stops)+3)

	segments = append(segments, Segment{
		Type:       SegmentStart,
		Position:   trip.Origin,
		BatterySoC: trip.InitialBatterySoC,
	})

	var (
		coveredKm  float64
		elapsedMin int
	)

	for i := range plan.Stops {
		stop := &plan.Stops[i]

		legStartKm := coveredKm
		legKm := stop.DistanceKm - coveredKm
		legMin := travelShareMinutes(legKm, plan.TotalDistanceKm, trip.DriveDurationMinutes)
		coveredKm = stop.DistanceKm
		elapsedMin += legMin

		segments = append(segments, Segment{
			Type:              SegmentTravel,
			Position:          travelPosition(trip, legStartKm, coveredKm, stop.Station.Station.Position),
			DistanceKm:        legKm,
			CumulativeKm:      coveredKm,
			DurationMinutes:   legMin,
			CumulativeMinutes: elapsedMin,
			BatterySoC:        stop.ArrivalSoC,
		})

		elapsedMin += stop.ChargingMinutes
		segments = append(segments, Segment{
			Type:              SegmentCharging,
			Position:          stop.Station.Station.Position,
			CumulativeKm:      coveredKm,
			DurationMinutes:   stop.ChargingMinutes,
			CumulativeMinutes: elapsedMin,
			BatterySoC:        stop.ArrivalSoC,
			DepartureSoC:      stop.DepartureSoC,
			Station:           &plan.Stops[i].Station,
			ChargingMinutes:   stop.ChargingMinutes,
		})
	}

	finalKm := plan.TotalDistanceKm - coveredKm
	finalMin := travelShareMinutes(finalKm, plan.TotalDistanceKm, trip.DriveDurationMinutes)
	elapsedMin += finalMin

	segments = append(segments, Segment{
		Type:              SegmentTravel,
		Position:          travelPosition(trip, coveredKm, plan.TotalDistanceKm, trip.Destination),
		DistanceKm:        finalKm,
		CumulativeKm:      plan.TotalDistanceKm,
		DurationMinutes:   finalMin,
		CumulativeMinutes: elapsedMin,
		BatterySoC:        plan.FinalBatterySoC,
	})

	segments = append(segments, Segment{
		Type:              SegmentEnd,
		Position:          trip.Destination,
		CumulativeKm:      plan.TotalDistanceKm,
		CumulativeMinutes: elapsedMin,
		BatterySoC:        plan.FinalBatterySoC,
	})

	return segments
}

// travelPosition places a travel segment midway along its leg on the route
// geometry. Without geometry it falls back to the leg's end point.
func travelPosition(trip TripInfo, fromKm, toKm float64, fallback station.Point) station.Point {
	if len(trip.Geometry) < 2 {
		return fallback
	}
	c := polyline.PointAtKm(trip.Geometry, (fromKm+toKm)/2)
	return station.Point{Lat: c.Lat, Lon: c.Lon}
}

// travelShareMinutes allocates a distance-proportional share of the drive
// time to one leg.
func travelShareMinutes(legKm, totalKm float64, driveMinutes int) int {
	if totalKm <= 0 || legKm <= 0 {
		return 0
	}
	return int(legKm/totalKm*float64(driveMinutes) + 0.5)
}
