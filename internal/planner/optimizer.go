package planner

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/chargeroute/chargeroute/internal/station"
	"github.com/chargeroute/chargeroute/internal/vehicle"
)

// Walk states.
const (
	stateCruising    = "cruising"
	stateNeedsStop   = "needs_stop"
	stateStopPlanned = "stop_planned"
	stateComplete    = "complete"
	stateInfeasible  = "infeasible"
)

// Walk events.
const (
	eventRequireStop = "require_stop"
	eventPlanStop    = "plan_stop"
	eventResume      = "resume"
	eventFinish      = "finish"
	eventAbort       = "abort"
)

// Optimizer plans charging stops along a route. It is pure computation:
// no I/O, no shared state, safe for concurrent use.
type Optimizer struct {
	cfg Config
}

// New creates an optimizer with the given tunables. Zero config fields take
// their documented defaults.
func New(cfg Config) *Optimizer {
	return &Optimizer{cfg: cfg.withDefaults()}
}

// Config returns the optimizer's effective configuration.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// Optimize computes a charging-stop plan. Domain infeasibility (not enough
// range, no station, arrival constraint breached) is reported inside the
// returned Plan; the error return is reserved for contract violations in
// the request itself.
func (o *Optimizer) Optimize(req Request) (*Plan, error) {
	strat, multiplier, minArrival, err := o.normalize(&req)
	if err != nil {
		return nil, err
	}

	w := newWalk(o.cfg, req, strat, multiplier, minArrival)

	for {
		switch w.fsm.Current() {
		case stateCruising:
			w.stepCruising()
		case stateNeedsStop:
			w.stepNeedsStop()
		case stateStopPlanned:
			w.stepStopPlanned()
		default:
			return w.finalize(), nil
		}
	}
}

// normalize validates the request and resolves its defaults.
func (o *Optimizer) normalize(req *Request) (Strategy, float64, float64, error) {
	if err := req.Vehicle.Validate(); err != nil {
		return Strategy{}, 0, 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if req.TotalDistanceKm <= 0 {
		return Strategy{}, 0, 0, fmt.Errorf("%w: distance %.1f km must be positive", ErrInvalidInput, req.TotalDistanceKm)
	}
	if req.InitialBatterySoC < 0 || req.InitialBatterySoC > 100 {
		return Strategy{}, 0, 0, fmt.Errorf("%w: initial battery %.1f%% outside [0, 100]", ErrInvalidInput, req.InitialBatterySoC)
	}
	if req.MinArrivalSoC < 0 || req.MinArrivalSoC > 100 {
		return Strategy{}, 0, 0, fmt.Errorf("%w: minimum arrival %.1f%% outside [0, 100]", ErrInvalidInput, req.MinArrivalSoC)
	}
	if req.ConsumptionMultiplier != 0 && req.ConsumptionMultiplier < 1 {
		return Strategy{}, 0, 0, fmt.Errorf("%w: consumption multiplier %.2f below 1.0", ErrInvalidInput, req.ConsumptionMultiplier)
	}

	strat, err := StrategyByID(req.Strategy)
	if err != nil {
		return Strategy{}, 0, 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	trafficMultiplier := req.ConsumptionMultiplier
	if trafficMultiplier == 0 {
		trafficMultiplier = 1.0
	}
	multiplier := o.cfg.DemoMultiplier * trafficMultiplier

	minArrival := req.MinArrivalSoC
	if minArrival == 0 {
		minArrival = o.cfg.DefaultMinArrivalSoC
	}

	return strat, multiplier, minArrival, nil
}

// walk carries the simulation state through one planning request.
type walk struct {
	cfg        Config
	v          vehicle.Vehicle
	strat      Strategy
	candidates []station.Resolved

	totalKm    float64
	multiplier float64
	minArrival float64

	fsm *fsm.FSM

	soc       float64
	coveredKm float64

	// pending is the station chosen in needs_stop, consumed in stop_planned.
	pending station.Resolved

	stops        []Stop
	totalMinutes int
	totalCost    float64
	finalSoC     float64
	strategyID   StrategyID
	failure      *Infeasibility
}

func newWalk(cfg Config, req Request, strat Strategy, multiplier, minArrival float64) *walk {
	w := &walk{
		cfg:        cfg,
		v:          req.Vehicle,
		strat:      strat,
		candidates: req.Candidates,
		totalKm:    req.TotalDistanceKm,
		multiplier: multiplier,
		minArrival: minArrival,
		soc:        req.InitialBatterySoC,
		strategyID: strat.ID,
	}

	w.fsm = fsm.NewFSM(
		stateCruising,
		fsm.Events{
			{Name: eventFinish, Src: []string{stateCruising}, Dst: stateComplete},
			{Name: eventRequireStop, Src: []string{stateCruising}, Dst: stateNeedsStop},
			{Name: eventPlanStop, Src: []string{stateNeedsStop}, Dst: stateStopPlanned},
			{Name: eventResume, Src: []string{stateStopPlanned}, Dst: stateCruising},
			{Name: eventAbort, Src: []string{stateCruising, stateNeedsStop, stateStopPlanned}, Dst: stateInfeasible},
		},
		nil,
	)

	return w
}

// trigger fires an event; transitions are fixed at construction, so a
// rejected event is a programming error.
func (w *walk) trigger(event string) {
	if err := w.fsm.Event(context.Background(), event); err != nil {
		panic(fmt.Sprintf("planner: illegal transition %s from %s: %v", event, w.fsm.Current(), err))
	}
}

// maxRangeKm is the distance drivable before the battery hits the
// strategy's arrival floor. Negative when already below the floor.
func (w *walk) maxRangeKm() float64 {
	return w.v.RangeKm(w.soc-w.strat.MinStopSoC, w.multiplier)
}

// stepCruising decides whether the remaining distance is coverable on the
// current charge.
func (w *walk) stepCruising() {
	remaining := w.totalKm - w.coveredKm

	if w.maxRangeKm() >= remaining {
		w.trigger(eventFinish)
		return
	}
	w.trigger(eventRequireStop)
}

// stepNeedsStop selects a station within the reachable span, scaled by the
// safety margin so the stop is never at the exact empty-range boundary.
func (w *walk) stepNeedsStop() {
	maxRange := w.maxRangeKm()
	if maxRange <= 0 {
		w.abort(&Infeasibility{
			Code: CodeInsufficientRange,
			Message: fmt.Sprintf("battery at %.1f%% is already at the %.0f%% stop floor with %.0f km left",
				w.soc, w.strat.MinStopSoC, w.totalKm-w.coveredKm),
			AtKm:      w.coveredKm,
			StopIndex: len(w.stops),
		})
		return
	}

	reachKm := maxRange * w.cfg.SafetyMarginFactor
	if remaining := w.totalKm - w.coveredKm; reachKm > remaining {
		reachKm = remaining
	}

	// Arrival at the far edge of the reach must still clear the floor.
	if arrival := w.soc - w.v.ConsumptionForDistance(reachKm, w.multiplier); arrival < w.strat.MinStopSoC {
		w.abort(&Infeasibility{
			Code: CodeInsufficientRange,
			Message: fmt.Sprintf("arriving %.0f km ahead would leave %.1f%%, below the %.0f%% stop floor",
				reachKm, arrival, w.strat.MinStopSoC),
			AtKm:      w.coveredKm + reachKm,
			StopIndex: len(w.stops),
		})
		return
	}

	best, ok := station.SelectInRange(w.candidates, w.coveredKm, w.coveredKm+reachKm, w.strat.Weights)
	if !ok {
		w.abort(&Infeasibility{
			Code: CodeNoStation,
			Message: fmt.Sprintf("no charging station between %.0f km and %.0f km along the route",
				w.coveredKm, w.coveredKm+reachKm),
			AtKm:      w.coveredKm + reachKm,
			StopIndex: len(w.stops),
		})
		return
	}

	w.pending = best
	w.trigger(eventPlanStop)
}

// stepStopPlanned charges at the pending station: decides the departure
// target, integrates the charge time, and accumulates cost.
func (w *walk) stepStopPlanned() {
	travelKm := w.pending.Station.RouteOffsetKm - w.coveredKm
	arrival := w.soc - w.v.ConsumptionForDistance(travelKm, w.multiplier)
	w.coveredKm = w.pending.Station.RouteOffsetKm

	remainingAfter := w.totalKm - w.coveredKm
	target, reason := w.departureTarget(remainingAfter)

	if target <= arrival {
		// Already holding more than the stop needs; continue without
		// charging.
		w.soc = arrival
		w.trigger(eventResume)
		return
	}

	stationPower := w.pending.Station.PowerKW
	if w.v.MaxChargingPowerKW > 0 && stationPower > w.v.MaxChargingPowerKW {
		stationPower = w.v.MaxChargingPowerKW
	}

	minutes := w.v.ChargingTimeMinutes(arrival, target, stationPower)
	energy := w.v.EnergyForSoCDelta(target - arrival)
	cost := vehicle.ChargingCost(energy, w.pending.PricePerKWh, w.pending.ConnectionFee, true)

	w.stops = append(w.stops, Stop{
		Station:         w.pending,
		DistanceKm:      w.coveredKm,
		ArrivalSoC:      arrival,
		DepartureSoC:    target,
		ChargingMinutes: minutes,
		EnergyKWh:       energy,
		Cost:            cost,
		Reason:          reason,
	})

	w.soc = target
	w.totalMinutes += minutes
	w.totalCost += cost
	w.trigger(eventResume)
}

// departureTarget picks how full to charge at a stop. Near the destination
// it charges only what the final leg needs plus a buffer, instead of the
// full strategy target.
func (w *walk) departureTarget(remainingAfterKm float64) (float64, string) {
	target := w.strat.TargetSoC
	reason := fmt.Sprintf("charge to the %s target of %.0f%%", w.strat.Name, w.strat.TargetSoC)

	currentRange := w.v.RangeKm(w.soc-w.strat.MinStopSoC, w.multiplier)
	if remainingAfterKm < currentRange*w.cfg.CloseToDestinationFactor {
		needed := w.v.ConsumptionForDistance(remainingAfterKm, w.multiplier) + w.minArrival + w.cfg.ArrivalBufferSoC
		if needed < target {
			target = needed
			reason = fmt.Sprintf("top up to %.0f%% for the final %.0f km", target, remainingAfterKm)
		}
	}

	if target > w.cfg.ChargeCeilingSoC {
		target = w.cfg.ChargeCeilingSoC
	}
	return target, reason
}

// abort records the failure and moves to the terminal infeasible state.
func (w *walk) abort(reason *Infeasibility) {
	w.failure = reason
	w.trigger(eventAbort)
}

// finalize assembles the Plan from the terminal state. The destination
// battery is checked here: completing the walk is not enough if the trip
// arrives below the requested minimum.
func (w *walk) finalize() *Plan {
	plan := &Plan{
		Stops:                w.stops,
		TotalDistanceKm:      w.totalKm,
		TotalChargingMinutes: w.totalMinutes,
		TotalCost:            w.totalCost,
		Strategy:             w.strategyID,
	}

	if w.fsm.Current() == stateInfeasible {
		plan.FinalBatterySoC = w.soc
		plan.Feasible = false
		plan.Infeasibility = w.failure
		return plan
	}

	remaining := w.totalKm - w.coveredKm
	final := w.soc - w.v.ConsumptionForDistance(remaining, w.multiplier)
	plan.FinalBatterySoC = final

	switch {
	case final <= 0:
		plan.Feasible = false
		plan.Infeasibility = &Infeasibility{
			Code:      CodeArrivalConstraint,
			Message:   fmt.Sprintf("battery would be exhausted before the destination (%.1f%%)", final),
			AtKm:      w.totalKm,
			StopIndex: -1,
		}
	case final < w.minArrival:
		plan.Feasible = false
		plan.Infeasibility = &Infeasibility{
			Code: CodeArrivalConstraint,
			Message: fmt.Sprintf("arrives with %.1f%%, below the requested minimum of %.0f%%",
				final, w.minArrival),
			AtKm:      w.totalKm,
			StopIndex: -1,
		}
	default:
		plan.Feasible = true
	}

	return plan
}
