// Package station provides charging-station candidates for trip planning:
// discovery through an external provider, default resolution for missing
// station data, and strategy-weighted scoring.
package station

import (
	"context"
	"errors"
	"time"

	"github.com/chargeroute/chargeroute/internal/vehicle"
)

// Sentinel errors for station discovery.
var (
	// ErrProviderUnavailable indicates the discovery provider is down or the
	// circuit breaker is open.
	ErrProviderUnavailable = errors.New("station provider unavailable")
	// ErrStationNotFound indicates no station matches the query.
	ErrStationNotFound = errors.New("station not found")
	// ErrRateLimitExceeded indicates the provider API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Provider defines the interface for station discovery providers.
type Provider interface {
	// FindStations retrieves charging stations within a bounding box.
	FindStations(ctx context.Context, box GeoBox) ([]Station, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// GeoBox represents a geographic bounding box.
type GeoBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether the point lies inside the box.
func (b GeoBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Station is a charging-station candidate as reported by discovery.
// Optional fields are pointers: absence is expected and non-fatal, and is
// resolved in exactly one place (Resolve) rather than at each call site.
type Station struct {
	// ID identifies the station across providers.
	ID string

	// Name is the station's display name.
	Name string

	// Operator is the charging network operating the station.
	Operator string

	// Position is the station's geographic location.
	Position Point

	// PowerKW is the rated power of the fastest connector.
	PowerKW float64

	// PricePerKWh is the published price, if the station publishes one.
	PricePerKWh *float64

	// ConnectionFee is the published per-session fee, if any.
	ConnectionFee *float64

	// AvailableChargers is the reported number of free chargers, if known.
	AvailableChargers *int

	// TotalChargers is the total charger count, if known.
	TotalChargers *int

	// FastBrand marks stations run by recognized fast-charging networks.
	FastBrand bool

	// RouteOffsetKm is the station's position along the planned route,
	// measured from the trip start. Zero until projected by the planner.
	RouteOffsetKm float64

	// UpdatedAt is when this snapshot was last refreshed.
	UpdatedAt time.Time
}

// Speed labels for display, derived from the pricing power tiers.
const (
	SpeedSlow      = "slow"
	SpeedFast      = "fast"
	SpeedUltraFast = "ultra-fast"
)

// Resolved is a station with all optional fields resolved to concrete
// values. The planner and scorer only ever see resolved stations, so their
// assumptions about missing data cannot drift apart.
type Resolved struct {
	Station Station

	// PricePerKWh is the effective price: published, premium contract, or
	// power-tier rate.
	PricePerKWh float64

	// ConnectionFee is the effective per-session fee.
	ConnectionFee float64

	// Availability is the available/total charger ratio in [0, 1].
	// Stations without reported counts get a neutral 1.0: availability is
	// often stale or unreported, and absence must not look like "full".
	Availability float64

	// SpeedLabel is the display label for the station's power tier.
	SpeedLabel string
}

// Resolve applies the documented defaults to a station snapshot.
func Resolve(st Station, pricing vehicle.PricingTable) Resolved {
	r := Resolved{
		Station:       st,
		PricePerKWh:   pricing.PriceForPower(st.PowerKW, st.FastBrand, st.PricePerKWh),
		ConnectionFee: pricing.DefaultConnectionFee,
		Availability:  1.0,
	}

	if st.ConnectionFee != nil && *st.ConnectionFee >= 0 {
		r.ConnectionFee = *st.ConnectionFee
	}

	if st.AvailableChargers != nil && st.TotalChargers != nil && *st.TotalChargers > 0 {
		ratio := float64(*st.AvailableChargers) / float64(*st.TotalChargers)
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		r.Availability = ratio
	}

	switch {
	case st.PowerKW >= vehicle.UltraFastPowerThresholdKW:
		r.SpeedLabel = SpeedUltraFast
	case st.PowerKW >= vehicle.FastPowerThresholdKW:
		r.SpeedLabel = SpeedFast
	default:
		r.SpeedLabel = SpeedSlow
	}

	return r
}

// ResolveAll resolves a batch of stations.
func ResolveAll(stations []Station, pricing vehicle.PricingTable) []Resolved {
	out := make([]Resolved, 0, len(stations))
	for _, st := range stations {
		out = append(out, Resolve(st, pricing))
	}
	return out
}

// Error provides detailed error information from a station provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
