// Package planner computes charging-stop plans for EV trips: given a route,
// a vehicle, a battery constraint, and candidate stations along the way, it
// decides where to stop, how long to charge, and what it costs, or reports
// why no valid stop sequence exists.
package planner

import (
	"errors"
	"fmt"

	"github.com/chargeroute/chargeroute/internal/station"
	"github.com/chargeroute/chargeroute/internal/vehicle"
)

// Sentinel errors for planning input validation.
var (
	ErrUnknownStrategy = errors.New("unknown charging strategy")
	ErrInvalidInput    = errors.New("invalid planning input")
)

// StrategyID identifies a charging strategy preset.
type StrategyID string

// Strategy presets.
const (
	StrategyFewLong   StrategyID = "few_long"
	StrategyBalanced  StrategyID = "balanced"
	StrategyManyShort StrategyID = "many_short"
)

// Strategy is a named charging preset. It fixes how full to charge at each
// stop, how low the battery may be on arrival at a stop, and how station
// candidates are weighted.
type Strategy struct {
	ID          StrategyID
	Name        string
	Description string

	// TargetSoC is the departure state of charge at each stop.
	TargetSoC float64

	// MinStopSoC is the lowest acceptable state of charge when arriving
	// at a stop.
	MinStopSoC float64

	// Weights is the station scoring mix for this strategy.
	Weights station.Weights
}

// strategies holds the preset definitions, keyed by ID.
var strategies = map[StrategyID]Strategy{
	StrategyFewLong: {
		ID:          StrategyFewLong,
		Name:        "Few long stops",
		Description: "Charge high at each stop to minimize the number of stops; prefers cheaper stations.",
		TargetSoC:   90,
		MinStopSoC:  15,
		Weights:     station.Weights{Power: 0.35, Price: 0.65, BrandBonus: 1.2},
	},
	StrategyBalanced: {
		ID:          StrategyBalanced,
		Name:        "Balanced",
		Description: "Even trade-off between stop count, charge time, and price.",
		TargetSoC:   70,
		MinStopSoC:  20,
		Weights:     station.Weights{Power: 0.5, Price: 0.5, BrandBonus: 1.2},
	},
	StrategyManyShort: {
		ID:          StrategyManyShort,
		Name:        "Many short stops",
		Description: "Short top-ups in the fast part of the charge curve; prefers high-power stations.",
		TargetSoC:   60,
		MinStopSoC:  25,
		Weights:     station.Weights{Power: 0.65, Price: 0.35, BrandBonus: 1.2},
	},
}

// strategyOrder fixes the listing order for metadata endpoints.
var strategyOrder = []StrategyID{StrategyFewLong, StrategyBalanced, StrategyManyShort}

// StrategyByID returns the preset for the given ID.
func StrategyByID(id StrategyID) (Strategy, error) {
	s, ok := strategies[id]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, id)
	}
	return s, nil
}

// Strategies returns all presets in stable order.
func Strategies() []Strategy {
	out := make([]Strategy, 0, len(strategyOrder))
	for _, id := range strategyOrder {
		out = append(out, strategies[id])
	}
	return out
}

// Config holds the optimizer's tunables. All values are injected; the
// optimizer keeps no global state. The constants are demo-tuned rather than
// derived from vehicle safety data, so they stay configurable.
type Config struct {
	// ChargeCeilingSoC is the global cap on departure charge. Charging past
	// it is disproportionately slow due to curve taper (default: 90).
	ChargeCeilingSoC float64

	// SafetyMarginFactor scales the drivable range when planning a stop, so
	// a stop is never planned at the exact empty-range boundary
	// (default: 0.85).
	SafetyMarginFactor float64

	// CloseToDestinationFactor: when the distance remaining after a stop is
	// below this fraction of the current range, the stop charges only what
	// the final leg needs (default: 0.5).
	CloseToDestinationFactor float64

	// ArrivalBufferSoC is the extra charge added on top of the final leg's
	// needs for a close-to-destination stop (default: 10).
	ArrivalBufferSoC float64

	// DefaultMinArrivalSoC applies when a request does not set a minimum
	// arrival battery (default: 15).
	DefaultMinArrivalSoC float64

	// DemoMultiplier amplifies consumption to make stops more frequent in
	// demonstrations. 1.0 means off (default: 1.0).
	DemoMultiplier float64

	// Pricing resolves derived station prices and fees.
	Pricing vehicle.PricingTable
}

// withDefaults returns the config with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.ChargeCeilingSoC == 0 {
		c.ChargeCeilingSoC = 90
	}
	if c.SafetyMarginFactor == 0 {
		c.SafetyMarginFactor = 0.85
	}
	if c.CloseToDestinationFactor == 0 {
		c.CloseToDestinationFactor = 0.5
	}
	if c.ArrivalBufferSoC == 0 {
		c.ArrivalBufferSoC = 10
	}
	if c.DefaultMinArrivalSoC == 0 {
		c.DefaultMinArrivalSoC = 15
	}
	if c.DemoMultiplier == 0 {
		c.DemoMultiplier = 1.0
	}
	if c.Pricing == (vehicle.PricingTable{}) {
		c.Pricing = vehicle.DefaultPricingTable()
	}
	return c
}

// Request is one planning request. Candidates must carry RouteOffsetKm
// (projected onto the route upstream); the optimizer itself never touches
// geography.
type Request struct {
	// Vehicle is the vehicle being driven.
	Vehicle vehicle.Vehicle

	// TotalDistanceKm is the route's driving distance.
	TotalDistanceKm float64

	// InitialBatterySoC is the battery percentage at trip start.
	InitialBatterySoC float64

	// MinArrivalSoC is the requested minimum battery at the destination.
	// Zero means the configured default.
	MinArrivalSoC float64

	// Strategy selects the charging preset.
	Strategy StrategyID

	// ConsumptionMultiplier models traffic/terrain amplification. Must be
	// >= 1; zero means 1.0.
	ConsumptionMultiplier float64

	// Candidates are the resolved stations along the route, with route
	// offsets set.
	Candidates []station.Resolved
}

// Stop is one planned charging stop. Immutable once produced.
type Stop struct {
	// Station is the chosen station snapshot with resolved price and fee.
	Station station.Resolved

	// DistanceKm is the cumulative distance from trip start.
	DistanceKm float64

	// ArrivalSoC is the battery percentage arriving at the station.
	ArrivalSoC float64

	// DepartureSoC is the battery percentage leaving the station.
	DepartureSoC float64

	// ChargingMinutes is the charge duration from curve integration.
	ChargingMinutes int

	// EnergyKWh is the energy added during the stop.
	EnergyKWh float64

	// Cost is the stop's cost, energy plus connection fee.
	Cost float64

	// Reason explains why this stop charges to its departure level.
	Reason string
}

// Infeasibility codes.
const (
	// CodeInsufficientRange: the battery cannot reach any permissible stop
	// point without dropping below the strategy's arrival floor.
	CodeInsufficientRange = "INSUFFICIENT_RANGE"

	// CodeNoStation: no candidate station exists within the reachable span
	// where a stop is required.
	CodeNoStation = "NO_STATION"

	// CodeArrivalConstraint: the trip completes but the destination battery
	// breaches the requested minimum (or is exhausted outright).
	CodeArrivalConstraint = "ARRIVAL_CONSTRAINT"
)

// Infeasibility describes why a trip cannot be planned. It is a normal
// domain outcome, not an error: callers render it as user guidance.
type Infeasibility struct {
	// Code is one of the infeasibility codes above.
	Code string

	// Message is a human-readable explanation.
	Message string

	// AtKm is the route offset where planning first failed.
	AtKm float64

	// StopIndex is the index of the stop being planned when planning
	// failed, or -1 when the failure is at the destination.
	StopIndex int
}

// Plan is a completed planning result. Feasible=false carries the partial
// plan built before the failure plus the Infeasibility detail.
type Plan struct {
	// Stops is the ordered stop list. Empty means the trip completes on
	// the starting charge.
	Stops []Stop

	// TotalDistanceKm is the route's driving distance.
	TotalDistanceKm float64

	// TotalChargingMinutes is the summed charge time across stops.
	TotalChargingMinutes int

	// TotalCost is the summed cost across stops.
	TotalCost float64

	// Strategy is the preset the plan was built with.
	Strategy StrategyID

	// FinalBatterySoC is the battery percentage at the destination. Not
	// clamped: a negative value on an infeasible plan is load-bearing
	// detail for messaging.
	FinalBatterySoC float64

	// Feasible reports whether the plan satisfies every constraint.
	Feasible bool

	// Infeasibility is set when Feasible is false.
	Infeasibility *Infeasibility
}
