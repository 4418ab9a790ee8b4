// Package vehicle provides the battery and charge-curve model used by the
// trip planner. All operations are pure functions over immutable value types.
package vehicle

import (
	"errors"
	"fmt"
	"math"
)

// Validation errors. These indicate caller bugs, not domain outcomes.
var (
	// ErrInvalidCapacity indicates a non-positive battery capacity.
	ErrInvalidCapacity = errors.New("battery capacity must be positive")
	// ErrInvalidConsumption indicates a non-positive consumption rate.
	ErrInvalidConsumption = errors.New("consumption rate must be positive")
	// ErrEmptyCurve indicates a charge curve with no points.
	ErrEmptyCurve = errors.New("charge curve must contain at least one point")
	// ErrUnsortedCurve indicates charge curve points not sorted ascending by SoC.
	ErrUnsortedCurve = errors.New("charge curve points must be sorted ascending by SoC")
	// ErrCurveOutOfRange indicates a curve point with SoC outside [0, 100].
	ErrCurveOutOfRange = errors.New("charge curve SoC must be within [0, 100]")
)

// CurvePoint maps a state of charge to the maximum charging power the
// vehicle accepts at that SoC.
type CurvePoint struct {
	SoCPercent float64
	PowerKW    float64
}

// ChargeCurve is an ordered list of curve points, ascending by SoC.
// Queries outside the covered SoC range clamp to the nearest endpoint.
type ChargeCurve []CurvePoint

// Vehicle describes the battery and charging characteristics of an EV.
// It is immutable reference data: planners read it, nothing mutates it.
type Vehicle struct {
	// ID identifies the vehicle in the catalog (empty for inline specs).
	ID string

	// Name is the human-readable model name.
	Name string

	// BatteryCapacityKWh is the usable battery capacity.
	BatteryCapacityKWh float64

	// ConsumptionKWhPerKm is the average energy consumption.
	ConsumptionKWhPerKm float64

	// MaxChargingPowerKW is the highest DC power the vehicle ever accepts.
	MaxChargingPowerKW float64

	// Curve is the SoC-to-power charge curve.
	Curve ChargeCurve
}

// Validate checks the vehicle's contract. A failure here is a programming
// error on the caller's side and should abort the planning request loudly.
func (v Vehicle) Validate() error {
	if v.BatteryCapacityKWh <= 0 {
		return ErrInvalidCapacity
	}
	if v.ConsumptionKWhPerKm <= 0 {
		return ErrInvalidConsumption
	}
	return v.Curve.Validate()
}

// Validate checks that the curve is non-empty, sorted ascending by SoC,
// and contained in [0, 100].
func (c ChargeCurve) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCurve
	}
	for i, p := range c {
		if p.SoCPercent < 0 || p.SoCPercent > 100 {
			return fmt.Errorf("point %d (soc=%.1f): %w", i, p.SoCPercent, ErrCurveOutOfRange)
		}
		if i > 0 && c[i-1].SoCPercent >= p.SoCPercent {
			return fmt.Errorf("point %d (soc=%.1f): %w", i, p.SoCPercent, ErrUnsortedCurve)
		}
	}
	return nil
}

// PowerAt returns the maximum charging power at the given SoC using
// piecewise-linear interpolation between the two bracketing curve points.
// Queries below the first or above the last point clamp to that point's
// power. An exact SoC match returns the point's power with no
// interpolation drift.
func (c ChargeCurve) PowerAt(socPercent float64) float64 {
	if len(c) == 0 {
		return 0
	}
	if socPercent <= c[0].SoCPercent {
		return c[0].PowerKW
	}
	last := c[len(c)-1]
	if socPercent >= last.SoCPercent {
		return last.PowerKW
	}

	for i := 1; i < len(c); i++ {
		if socPercent == c[i].SoCPercent {
			return c[i].PowerKW
		}
		if socPercent < c[i].SoCPercent {
			lo, hi := c[i-1], c[i]
			frac := (socPercent - lo.SoCPercent) / (hi.SoCPercent - lo.SoCPercent)
			return lo.PowerKW + frac*(hi.PowerKW-lo.PowerKW)
		}
	}
	return last.PowerKW
}

// ConsumptionForDistance returns the percentage of battery consumed by
// driving the given distance. The multiplier models terrain, traffic, or
// demo-mode amplification; callers choose it. The result is capped at 100.
func (v Vehicle) ConsumptionForDistance(distanceKm, multiplier float64) float64 {
	if distanceKm <= 0 || multiplier <= 0 {
		return 0
	}
	energyKWh := distanceKm * v.ConsumptionKWhPerKm * multiplier
	percent := energyKWh / v.BatteryCapacityKWh * 100
	return math.Min(100, percent)
}

// RangeKm returns the distance the vehicle can cover on the given battery
// percentage at the given consumption multiplier.
func (v Vehicle) RangeKm(batteryPercent, multiplier float64) float64 {
	if batteryPercent <= 0 {
		return 0
	}
	availableKWh := batteryPercent / 100 * v.BatteryCapacityKWh
	return availableKWh / (v.ConsumptionKWhPerKm * multiplier)
}

// ChargingTimeMinutes returns the time to charge from one SoC to another at
// a station with the given rated power, integrating the charge curve in
// 1%-SoC steps. At each step the achievable power is the lesser of the
// curve's power and the station's rating; a fast charger rated above the
// vehicle's peak intake yields no benefit once the curve tapers.
// Returns 0 when fromSoC >= toSoC.
func (v Vehicle) ChargingTimeMinutes(fromSoC, toSoC, stationPowerKW float64) int {
	if fromSoC >= toSoC || stationPowerKW <= 0 {
		return 0
	}

	energyPerStepKWh := v.BatteryCapacityKWh / 100
	var hours float64
	for soc := fromSoC; soc < toSoC; soc++ {
		step := math.Min(1, toSoC-soc)
		power := math.Min(v.Curve.PowerAt(soc), stationPowerKW)
		if power <= 0 {
			continue
		}
		hours += energyPerStepKWh * step / power
	}

	return int(math.Ceil(hours * 60))
}

// EnergyForSoCDelta returns the energy in kWh needed to raise the SoC by
// the given number of percentage points.
func (v Vehicle) EnergyForSoCDelta(deltaPercent float64) float64 {
	if deltaPercent <= 0 {
		return 0
	}
	return deltaPercent / 100 * v.BatteryCapacityKWh
}
