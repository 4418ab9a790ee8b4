// Package worker provides background job processing for ChargeRoute.
package worker

import (
	"time"

	"github.com/chargeroute/chargeroute/internal/station"
)

// RefreshTarget represents a geographic region to refresh.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Boxes are the bounding boxes to refresh. Typically one box per
	// highway corridor segment or metropolitan area.
	Boxes []station.GeoBox

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// RegionBox pairs a bounding box with the region it belongs to, so
// refresh failures can be attributed.
type RegionBox struct {
	Region string
	Box    station.GeoBox
}

// RefreshConfig holds configuration for the station refresh job.
type RefreshConfig struct {
	// Targets are the geographic regions to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// PruneStale enables deletion of station snapshots that have not been
	// refreshed within StaleAfter.
	// Default: true
	PruneStale bool

	// StaleAfter is the age at which a snapshot is considered stale.
	// Default: 24 hours
	StaleAfter time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:     DefaultRefreshTargets(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
		PruneStale:  true,
		StaleAfter:  24 * time.Hour,
	}
}

// DefaultRefreshTargets returns the default refresh targets for Luzon.
// Focuses on Metro Manila and the major intercity driving corridors.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "Metro Manila",
			Priority: 1,
			Boxes: []station.GeoBox{
				{MinLat: 14.40, MinLon: 120.93, MaxLat: 14.80, MaxLon: 121.12},
			},
		},
		{
			Name:     "NLEX corridor",
			Priority: 1,
			Boxes: []station.GeoBox{
				{MinLat: 14.80, MinLon: 120.55, MaxLat: 15.05, MaxLon: 121.00}, // Bulacan
				{MinLat: 15.00, MinLon: 120.50, MaxLat: 15.25, MaxLon: 120.80}, // Pampanga
			},
		},
		{
			Name:     "SLEX corridor",
			Priority: 1,
			Boxes: []station.GeoBox{
				{MinLat: 14.05, MinLon: 121.00, MaxLat: 14.40, MaxLon: 121.40}, // Laguna
			},
		},
		{
			Name:     "SCTEX / Clark",
			Priority: 2,
			Boxes: []station.GeoBox{
				{MinLat: 15.15, MinLon: 120.35, MaxLat: 15.60, MaxLon: 120.75},
			},
		},
		{
			Name:     "STAR / Batangas",
			Priority: 2,
			Boxes: []station.GeoBox{
				{MinLat: 13.60, MinLon: 120.90, MaxLat: 14.05, MaxLon: 121.20},
			},
		},
		{
			Name:     "TPLEX / La Union",
			Priority: 2,
			Boxes: []station.GeoBox{
				{MinLat: 15.60, MinLon: 120.30, MaxLat: 16.10, MaxLon: 120.65}, // Tarlac-Pangasinan
				{MinLat: 16.10, MinLon: 120.25, MaxLat: 16.70, MaxLon: 120.50}, // La Union coast
			},
		},
		{
			Name:     "Baguio",
			Priority: 2,
			Boxes: []station.GeoBox{
				{MinLat: 16.25, MinLon: 120.50, MaxLat: 16.50, MaxLon: 120.70},
			},
		},
		{
			Name:     "CAVITEX / Tagaytay",
			Priority: 3,
			Boxes: []station.GeoBox{
				{MinLat: 14.05, MinLon: 120.85, MaxLat: 14.45, MaxLon: 121.05},
			},
		},
		{
			Name:     "Subic",
			Priority: 3,
			Boxes: []station.GeoBox{
				{MinLat: 14.75, MinLon: 120.20, MaxLat: 14.90, MaxLon: 120.35},
			},
		},
	}
}

// AllBoxes returns all boxes from all targets with their region names,
// in target order.
func (c RefreshConfig) AllBoxes() []RegionBox {
	var boxes []RegionBox
	for _, target := range c.Targets {
		for _, box := range target.Boxes {
			boxes = append(boxes, RegionBox{Region: target.Name, Box: box})
		}
	}
	return boxes
}

// TotalBoxes returns the total number of boxes to refresh.
func (c RefreshConfig) TotalBoxes() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Boxes)
	}
	return total
}
