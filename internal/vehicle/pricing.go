package vehicle

// Power thresholds for the pricing tiers, in kW.
const (
	// FastPowerThresholdKW is the minimum rating considered a fast charger.
	FastPowerThresholdKW = 50.0
	// UltraFastPowerThresholdKW is the minimum rating considered ultra-fast.
	UltraFastPowerThresholdKW = 150.0
)

// PricingTable holds the per-kWh rates applied when a station does not
// publish its own price, plus the default connection fee. Rates are in
// Philippine pesos. The table is passed explicitly into the planner so
// tests can substitute synthetic pricing without touching globals.
type PricingTable struct {
	// SlowRatePerKWh applies to stations below FastPowerThresholdKW.
	SlowRatePerKWh float64

	// FastRatePerKWh applies from FastPowerThresholdKW up to ultra-fast.
	FastRatePerKWh float64

	// UltraFastRatePerKWh applies at or above UltraFastPowerThresholdKW.
	UltraFastRatePerKWh float64

	// PremiumBrandRatePerKWh is the discounted contract rate for
	// recognized fast-charging networks.
	PremiumBrandRatePerKWh float64

	// DefaultConnectionFee is charged per session when the station does
	// not publish a fee.
	DefaultConnectionFee float64
}

// DefaultPricingTable returns the standard retail rates.
func DefaultPricingTable() PricingTable {
	return PricingTable{
		SlowRatePerKWh:         28,
		FastRatePerKWh:         33,
		UltraFastRatePerKWh:    38,
		PremiumBrandRatePerKWh: 30,
		DefaultConnectionFee:   25,
	}
}

// PriceForPower resolves the per-kWh price for a station. A positive
// station-published price always wins; otherwise premium-brand stations get
// the contract rate, and everything else falls into a power tier.
func (t PricingTable) PriceForPower(stationPowerKW float64, premiumBrand bool, overridePrice *float64) float64 {
	if overridePrice != nil && *overridePrice > 0 {
		return *overridePrice
	}
	if premiumBrand {
		return t.PremiumBrandRatePerKWh
	}
	switch {
	case stationPowerKW >= UltraFastPowerThresholdKW:
		return t.UltraFastRatePerKWh
	case stationPowerKW >= FastPowerThresholdKW:
		return t.FastRatePerKWh
	default:
		return t.SlowRatePerKWh
	}
}

// ChargingCost returns the session cost for the given energy at the given
// rate, optionally including the connection fee.
func ChargingCost(energyKWh, pricePerKWh, connectionFee float64, includeConnectionFee bool) float64 {
	cost := energyKWh * pricePerKWh
	if includeConnectionFee {
		cost += connectionFee
	}
	return cost
}
