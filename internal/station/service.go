package station

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/chargeroute/chargeroute/internal/vehicle"
	"github.com/chargeroute/chargeroute/pkg/polyline"
)

// ServiceConfig holds configuration for the station discovery service.
type ServiceConfig struct {
	// Provider is the station discovery provider.
	Provider Provider

	// Repository is the optional snapshot store. When set, provider results
	// are persisted and served as a last resort on provider outages.
	Repository Repository

	// Pricing resolves missing station prices and fees.
	Pricing vehicle.PricingTable

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache discovery results (default: 10 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.05 ~ 5.5km).
	// Bounding boxes snapped to the same grid cells share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// CorridorKm is the maximum lateral distance from the route for a
	// station to count as "along" it (default: 5 km).
	CorridorKm float64
}

// Service provides charging-station discovery with caching and snapshot
// fallback.
type Service struct {
	provider        Provider
	repository      Repository
	pricing         vehicle.PricingTable
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	corridorKm      float64

	mu    sync.RWMutex
	cache map[string]*cachedStations

	// Lifetime counters, not reset by InvalidateCache.
	hits   atomic.Int64
	misses atomic.Int64
}

type cachedStations struct {
	stations  []Station
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new station discovery service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.05 // ~5.5km at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = time.Hour
	}

	corridorKm := cfg.CorridorKm
	if corridorKm == 0 {
		corridorKm = 5
	}

	pricing := cfg.Pricing
	if pricing == (vehicle.PricingTable{}) {
		pricing = vehicle.DefaultPricingTable()
	}

	return &Service{
		provider:        cfg.Provider,
		repository:      cfg.Repository,
		pricing:         pricing,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		corridorKm:      corridorKm,
		cache:           make(map[string]*cachedStations),
	}
}

// StationsInBox returns charging stations within a bounding box.
// Uses cached data if available and not expired.
func (s *Service) StationsInBox(ctx context.Context, box GeoBox) ([]Station, error) {
	cacheKey := s.cacheKey(box)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.hits.Add(1)
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for stations")
		return cached.stations, nil
	}
	s.mu.RUnlock()

	return s.fetchStations(ctx, box, cacheKey)
}

// ResolvedInBox returns stations within the box with defaults applied.
func (s *Service) ResolvedInBox(ctx context.Context, box GeoBox) ([]Resolved, error) {
	stations, err := s.StationsInBox(ctx, box)
	if err != nil {
		return nil, err
	}
	return ResolveAll(stations, s.pricing), nil
}

// AlongRoute returns resolved stations within the corridor around the route
// geometry, with RouteOffsetKm set to the projected distance from the trip
// start. Stations beyond the corridor, or projecting past the route's end,
// are dropped.
func (s *Service) AlongRoute(ctx context.Context, route []polyline.Coordinate) ([]Resolved, error) {
	if len(route) < 2 {
		return nil, nil
	}

	box := boundingBox(route, s.corridorKm)
	stations, err := s.StationsInBox(ctx, box)
	if err != nil {
		return nil, err
	}

	routeLen := polyline.LengthKm(route)

	var out []Resolved
	for _, st := range stations {
		offset, lateral := polyline.ProjectKm(route, polyline.Coordinate{
			Lat: st.Position.Lat,
			Lon: st.Position.Lon,
		})
		if lateral > s.corridorKm || offset > routeLen {
			continue
		}
		st.RouteOffsetKm = offset
		out = append(out, Resolve(st, s.pricing))
	}

	s.logger.Debug().
		Int("candidates", len(stations)).
		Int("along_route", len(out)).
		Float64("route_km", routeLen).
		Msg("projected stations onto route")

	return out, nil
}

// RefreshBox forces a provider fetch for the box and persists the result.
// Used by the background worker to keep snapshots warm.
func (s *Service) RefreshBox(ctx context.Context, box GeoBox) (int, error) {
	stations, err := s.provider.FindStations(ctx, box)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	for i := range stations {
		stations[i].UpdatedAt = now
	}

	if s.repository != nil {
		if err := s.repository.Upsert(ctx, stations); err != nil {
			return 0, fmt.Errorf("persisting station snapshots: %w", err)
		}
	}

	cacheKey := s.cacheKey(box)
	s.mu.Lock()
	s.cache[cacheKey] = &cachedStations{
		stations:  stations,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	s.mu.Unlock()

	return len(stations), nil
}

// fetchStations fetches stations from the provider and updates the cache.
func (s *Service) fetchStations(ctx context.Context, box GeoBox, cacheKey string) ([]Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.hits.Add(1)
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit after double-check")
		return cached.stations, nil
	}

	s.misses.Add(1)

	s.logger.Debug().
		Float64("min_lat", box.MinLat).
		Float64("min_lon", box.MinLon).
		Float64("max_lat", box.MaxLat).
		Float64("max_lon", box.MaxLon).
		Str("provider", s.provider.Name()).
		Msg("fetching stations from provider")

	stations, err := s.provider.FindStations(ctx, box)
	if err != nil {
		s.logger.Error().Err(err).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch stations")

		// Check for stale data (stale-if-error pattern)
		if cached, ok := s.cache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", cacheKey).
					Msg("serving stale station data due to provider error")
				return cached.stations, nil
			}
		}

		// Last resort: persisted snapshot from the worker's refreshes.
		if s.repository != nil {
			stored, repoErr := s.repository.ListInBox(ctx, box)
			if repoErr == nil && len(stored) > 0 {
				s.logger.Warn().
					Int("stations", len(stored)).
					Msg("serving persisted station snapshot due to provider error")
				return stored, nil
			}
		}

		return nil, err
	}

	now := time.Now()
	for i := range stations {
		if stations[i].UpdatedAt.IsZero() {
			stations[i].UpdatedAt = now
		}
	}

	s.cache[cacheKey] = &cachedStations{
		stations:  stations,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	s.logger.Debug().
		Str("cache_key", cacheKey).
		Int("station_count", len(stations)).
		Msg("cached station response")

	return stations, nil
}

// cacheKey generates a cache key for a bounding box.
// Corners are snapped outward to the cache grid so near-identical boxes
// share an entry. Format: {gridMinLat},{gridMinLon}:{gridMaxLat},{gridMaxLon}.
func (s *Service) cacheKey(box GeoBox) string {
	gridMinLat := math.Floor(box.MinLat/s.cacheGridSize) * s.cacheGridSize
	gridMinLon := math.Floor(box.MinLon/s.cacheGridSize) * s.cacheGridSize
	gridMaxLat := math.Ceil(box.MaxLat/s.cacheGridSize) * s.cacheGridSize
	gridMaxLon := math.Ceil(box.MaxLon/s.cacheGridSize) * s.cacheGridSize

	return fmt.Sprintf("%.2f,%.2f:%.2f,%.2f",
		gridMinLat, gridMinLon,
		gridMaxLat, gridMaxLon,
	)
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedStations)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	stale := 0

	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		} else if now.Before(c.fetchedAt.Add(s.staleIfErrorTTL)) {
			stale++
		}
	}

	return CacheStats{
		TotalEntries: len(s.cache),
		FreshEntries: fresh,
		StaleEntries: stale,
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
		Provider:     s.provider.Name(),
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Hits         int64
	Misses       int64
	Provider     string
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// boundingBox computes the box around the route geometry, padded by the
// corridor distance.
func boundingBox(route []polyline.Coordinate, paddingKm float64) GeoBox {
	box := GeoBox{
		MinLat: math.Inf(1),
		MinLon: math.Inf(1),
		MaxLat: math.Inf(-1),
		MaxLon: math.Inf(-1),
	}

	for _, c := range route {
		box.MinLat = math.Min(box.MinLat, c.Lat)
		box.MinLon = math.Min(box.MinLon, c.Lon)
		box.MaxLat = math.Max(box.MaxLat, c.Lat)
		box.MaxLon = math.Max(box.MaxLon, c.Lon)
	}

	// 1 degree of latitude is ~111 km; longitude shrinks with latitude.
	latPad := paddingKm / 111.0
	midLat := (box.MinLat + box.MaxLat) / 2
	lonPad := paddingKm / (111.0 * math.Max(0.1, math.Cos(midLat*math.Pi/180)))

	box.MinLat -= latPad
	box.MaxLat += latPad
	box.MinLon -= lonPad
	box.MaxLon += lonPad

	return box
}
