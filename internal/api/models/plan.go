package models

// TripPlanRequest is the body for POST /v1/trips:plan.
type TripPlanRequest struct {
	// Origin and Destination are the trip endpoints.
	Origin      *Point `json:"origin"`
	Destination *Point `json:"destination"`

	// VehicleID selects a catalog vehicle. Ignored when Vehicle is set.
	VehicleID string `json:"vehicleId,omitempty"`

	// Vehicle is an inline vehicle spec for models not in the catalog.
	Vehicle *VehicleSpec `json:"vehicle,omitempty"`

	// InitialBatteryPercent is the state of charge at departure (0-100).
	InitialBatteryPercent float64 `json:"initialBatteryPercent"`

	// MinArrivalBatteryPercent is the requested floor at the destination.
	// Zero means the server default.
	MinArrivalBatteryPercent float64 `json:"minArrivalBatteryPercent,omitempty"`

	// Strategy is the charging strategy ID. Empty means "balanced".
	Strategy string `json:"strategy,omitempty"`

	// ConsumptionMultiplier amplifies consumption for traffic or terrain.
	// Must be >= 1.0 when set.
	ConsumptionMultiplier float64 `json:"consumptionMultiplier,omitempty"`
}

// VehicleSpec is an inline vehicle definition.
type VehicleSpec struct {
	Name                string       `json:"name,omitempty"`
	BatteryCapacityKWh  float64      `json:"batteryCapacityKWh"`
	ConsumptionKWhPerKm float64      `json:"consumptionKWhPerKm"`
	MaxChargingPowerKW  float64      `json:"maxChargingPowerKW"`
	Curve               []CurvePoint `json:"chargeCurve"`
}

// CurvePoint is one point of a charge curve.
type CurvePoint struct {
	SoCPercent float64 `json:"socPercent"`
	PowerKW    float64 `json:"powerKW"`
}

// TripPlanResponse is the response for POST /v1/trips:plan.
type TripPlanResponse struct {
	PlanID      string    `json:"planId"`
	GeneratedAt Timestamp `json:"generatedAt"`

	Strategy string       `json:"strategy"`
	Route    RouteSummary `json:"route"`
	Vehicle  VehicleRef   `json:"vehicle"`

	Feasible      bool               `json:"feasible"`
	Infeasibility *InfeasibilityInfo `json:"infeasibility,omitempty"`

	Stops               []ChargingStop `json:"stops"`
	Segments            []TripSegment  `json:"segments"`
	FinalBatteryPercent float64        `json:"finalBatteryPercent"`
	Totals              TripTotals     `json:"totals"`
}

// RouteSummary describes the driving route a plan was built on.
type RouteSummary struct {
	DistanceKm           float64 `json:"distanceKm"`
	DriveDurationMinutes int     `json:"driveDurationMinutes"`
	Geometry             string  `json:"geometry"`
	Provider             string  `json:"provider"`
}

// VehicleRef identifies the vehicle a plan was computed for.
type VehicleRef struct {
	ID                 string  `json:"id,omitempty"`
	Name               string  `json:"name,omitempty"`
	BatteryCapacityKWh float64 `json:"batteryCapacityKWh"`
}

// InfeasibilityInfo explains why a trip cannot be completed as requested.
type InfeasibilityInfo struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	AtKm      float64 `json:"atKm"`
	StopIndex int     `json:"stopIndex"`
}

// ChargingStop is one planned stop.
type ChargingStop struct {
	Station                 StopStation `json:"station"`
	DistanceKm              float64     `json:"distanceKm"`
	ArrivalBatteryPercent   float64     `json:"arrivalBatteryPercent"`
	DepartureBatteryPercent float64     `json:"departureBatteryPercent"`
	ChargingMinutes         int         `json:"chargingMinutes"`
	EnergyKWh               float64     `json:"energyKWh"`
	Cost                    float64     `json:"cost"`
	Reason                  string      `json:"reason,omitempty"`
}

// StopStation is the station snapshot embedded in a stop.
type StopStation struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Operator      string  `json:"operator,omitempty"`
	Point         Point   `json:"point"`
	PowerKW       float64 `json:"powerKW"`
	PricePerKWh   float64 `json:"pricePerKWh"`
	ConnectionFee float64 `json:"connectionFee"`
	SpeedLabel    string  `json:"speedLabel"`
}

// TripSegment is one display segment of the trip.
type TripSegment struct {
	Type              string       `json:"type"`
	Position          Point        `json:"position"`
	DistanceKm        float64      `json:"distanceKm,omitempty"`
	CumulativeKm      float64      `json:"cumulativeKm"`
	DurationMinutes   int          `json:"durationMinutes"`
	CumulativeMinutes int          `json:"cumulativeMinutes"`
	BatteryPercent    float64      `json:"batteryPercent"`
	DeparturePercent  float64      `json:"departurePercent,omitempty"`
	ChargingMinutes   int          `json:"chargingMinutes,omitempty"`
	Station           *StopStation `json:"station,omitempty"`
}

// TripTotals aggregates the plan.
type TripTotals struct {
	DistanceKm           float64 `json:"distanceKm"`
	DriveDurationMinutes int     `json:"driveDurationMinutes"`
	ChargingMinutes      int     `json:"chargingMinutes"`
	TripDurationMinutes  int     `json:"tripDurationMinutes"`
	Cost                 float64 `json:"cost"`
	Stops                int     `json:"stops"`
}
