package models

// StrategyInfo describes one charging strategy preset.
type StrategyInfo struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	TargetSoCPercent  float64 `json:"targetSocPercent"`
	MinStopSoCPercent float64 `json:"minStopSocPercent"`
	PowerWeight       float64 `json:"powerWeight"`
	PriceWeight       float64 `json:"priceWeight"`
}

// StrategyList is the response for GET /v1/metadata/strategies.
type StrategyList struct {
	Items []StrategyInfo `json:"items"`
}

// VehicleInfo describes one catalog vehicle.
type VehicleInfo struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	BatteryCapacityKWh  float64      `json:"batteryCapacityKWh"`
	ConsumptionKWhPerKm float64      `json:"consumptionKWhPerKm"`
	MaxChargingPowerKW  float64      `json:"maxChargingPowerKW"`
	Curve               []CurvePoint `json:"chargeCurve"`
}

// VehicleList is the response for GET /v1/metadata/vehicles.
type VehicleList struct {
	Items []VehicleInfo `json:"items"`
}
