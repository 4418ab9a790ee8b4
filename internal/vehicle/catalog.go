package vehicle

import "errors"

// ErrVehicleNotFound indicates an unknown catalog vehicle ID.
var ErrVehicleNotFound = errors.New("vehicle not found")

// Catalog is an in-memory set of reference vehicles addressable by ID.
type Catalog struct {
	vehicles map[string]Vehicle
	order    []string
}

// NewCatalog creates a catalog from the given vehicles, preserving order.
func NewCatalog(vehicles ...Vehicle) *Catalog {
	c := &Catalog{vehicles: make(map[string]Vehicle, len(vehicles))}
	for _, v := range vehicles {
		if _, ok := c.vehicles[v.ID]; !ok {
			c.order = append(c.order, v.ID)
		}
		c.vehicles[v.ID] = v
	}
	return c
}

// Get returns the vehicle with the given ID.
func (c *Catalog) Get(id string) (Vehicle, error) {
	v, ok := c.vehicles[id]
	if !ok {
		return Vehicle{}, ErrVehicleNotFound
	}
	return v, nil
}

// List returns all vehicles in registration order.
func (c *Catalog) List() []Vehicle {
	out := make([]Vehicle, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.vehicles[id])
	}
	return out
}

// DefaultCatalog returns the reference vehicles shipped with the service.
// Curves follow published DC charging profiles: a high plateau at low SoC
// tapering steeply past 80%.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Vehicle{
			ID:                  "veh_ioniq5_lr",
			Name:                "Hyundai Ioniq 5 Long Range",
			BatteryCapacityKWh:  77.4,
			ConsumptionKWhPerKm: 0.171,
			MaxChargingPowerKW:  233,
			Curve: ChargeCurve{
				{SoCPercent: 0, PowerKW: 225},
				{SoCPercent: 45, PowerKW: 233},
				{SoCPercent: 55, PowerKW: 198},
				{SoCPercent: 75, PowerKW: 130},
				{SoCPercent: 85, PowerKW: 72},
				{SoCPercent: 100, PowerKW: 20},
			},
		},
		Vehicle{
			ID:                  "veh_model3_lr",
			Name:                "Tesla Model 3 Long Range",
			BatteryCapacityKWh:  82,
			ConsumptionKWhPerKm: 0.141,
			MaxChargingPowerKW:  250,
			Curve: ChargeCurve{
				{SoCPercent: 0, PowerKW: 250},
				{SoCPercent: 20, PowerKW: 250},
				{SoCPercent: 50, PowerKW: 150},
				{SoCPercent: 80, PowerKW: 70},
				{SoCPercent: 100, PowerKW: 15},
			},
		},
		Vehicle{
			ID:                  "veh_atto3",
			Name:                "BYD Atto 3",
			BatteryCapacityKWh:  60.5,
			ConsumptionKWhPerKm: 0.157,
			MaxChargingPowerKW:  88,
			Curve: ChargeCurve{
				{SoCPercent: 0, PowerKW: 85},
				{SoCPercent: 30, PowerKW: 88},
				{SoCPercent: 60, PowerKW: 65},
				{SoCPercent: 80, PowerKW: 40},
				{SoCPercent: 100, PowerKW: 10},
			},
		},
		Vehicle{
			ID:                  "veh_leaf_40",
			Name:                "Nissan Leaf 40 kWh",
			BatteryCapacityKWh:  39,
			ConsumptionKWhPerKm: 0.155,
			MaxChargingPowerKW:  50,
			Curve: ChargeCurve{
				{SoCPercent: 0, PowerKW: 46},
				{SoCPercent: 50, PowerKW: 50},
				{SoCPercent: 70, PowerKW: 32},
				{SoCPercent: 90, PowerKW: 18},
				{SoCPercent: 100, PowerKW: 6},
			},
		},
	)
}
