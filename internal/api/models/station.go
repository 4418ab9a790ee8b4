package models

// Station represents a charging station for map display.
type Station struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Operator        string    `json:"operator,omitempty"`
	Point           Point     `json:"point"`
	PowerKW         float64   `json:"powerKW"`
	TotalConnectors int       `json:"totalConnectors"`
	PricePerKWh     float64   `json:"pricePerKWh"`
	ConnectionFee   float64   `json:"connectionFee"`
	Availability    float64   `json:"availability"`
	SpeedLabel      string    `json:"speedLabel"`
	FastBrand       bool      `json:"fastBrand"`
	UpdatedAt       Timestamp `json:"updatedAt"`
}

// StationList is the response for GET /v1/stations.
type StationList struct {
	Items    []Station `json:"items"`
	Provider string    `json:"provider"`
}
