package station

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chargeroute/chargeroute/pkg/polyline"
)

// mockStationProvider is a mock station provider for testing.
type mockStationProvider struct {
	name      string
	stations  []Station
	err       error
	callCount atomic.Int32
}

func (m *mockStationProvider) FindStations(ctx context.Context, box GeoBox) ([]Station, error) {
	m.callCount.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.stations, nil
}

func (m *mockStationProvider) Name() string {
	return m.name
}

func testBox() GeoBox {
	return GeoBox{MinLat: 14.5, MinLon: 120.5, MaxLat: 16.5, MaxLon: 121.5}
}

func TestService_StationsInBox_CacheMissThenHit(t *testing.T) {
	provider := &mockStationProvider{
		name: "test-provider",
		stations: []Station{
			{ID: "a", Position: Point{Lat: 15, Lon: 121}, PowerKW: 150},
		},
	}

	service := NewService(ServiceConfig{
		Provider: provider,
		CacheTTL: 5 * time.Minute,
	})

	for i := 0; i < 3; i++ {
		stations, err := service.StationsInBox(context.Background(), testBox())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(stations) != 1 {
			t.Fatalf("expected 1 station, got %d", len(stations))
		}
	}

	if provider.callCount.Load() != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.callCount.Load())
	}

	stats := service.CacheStats()
	if stats.TotalEntries != 1 || stats.FreshEntries != 1 {
		t.Errorf("unexpected cache stats: %+v", stats)
	}
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("expected 2 hits and 1 miss, got %d hits %d misses", stats.Hits, stats.Misses)
	}
}

func TestService_StationsInBox_NearbyBoxesShareEntry(t *testing.T) {
	provider := &mockStationProvider{name: "test-provider"}

	service := NewService(ServiceConfig{
		Provider: provider,
		CacheTTL: 5 * time.Minute,
	})

	box := testBox()
	if _, err := service.StationsInBox(context.Background(), box); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Shift by far less than the grid size.
	box.MinLat += 0.001
	box.MaxLon -= 0.001
	if _, err := service.StationsInBox(context.Background(), box); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.callCount.Load() != 1 {
		t.Errorf("expected boxes to share a cache entry, got %d provider calls", provider.callCount.Load())
	}
}

func TestService_StationsInBox_StaleIfError(t *testing.T) {
	provider := &mockStationProvider{
		name: "test-provider",
		stations: []Station{
			{ID: "a", Position: Point{Lat: 15, Lon: 121}},
		},
	}

	service := NewService(ServiceConfig{
		Provider:        provider,
		CacheTTL:        time.Nanosecond,
		StaleIfErrorTTL: time.Hour,
	})

	// Warm the cache.
	if _, err := service.StationsInBox(context.Background(), testBox()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(time.Millisecond)

	// Provider goes down; stale data should be served.
	provider.err = ErrProviderUnavailable
	stations, err := service.StationsInBox(context.Background(), testBox())
	if err != nil {
		t.Fatalf("expected stale data, got error: %v", err)
	}
	if len(stations) != 1 || stations[0].ID != "a" {
		t.Fatalf("expected stale station a, got %v", stations)
	}
}

func TestService_StationsInBox_RepositoryFallback(t *testing.T) {
	provider := &mockStationProvider{
		name: "test-provider",
		err:  ErrProviderUnavailable,
	}

	repo := NewInMemoryRepository()
	err := repo.Upsert(context.Background(), []Station{
		{ID: "stored", Position: Point{Lat: 15, Lon: 121}, UpdatedAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service := NewService(ServiceConfig{
		Provider:   provider,
		Repository: repo,
	})

	stations, err := service.StationsInBox(context.Background(), testBox())
	if err != nil {
		t.Fatalf("expected persisted snapshot, got error: %v", err)
	}
	if len(stations) != 1 || stations[0].ID != "stored" {
		t.Fatalf("expected stored station, got %v", stations)
	}
}

func TestService_StationsInBox_ErrorWithoutFallback(t *testing.T) {
	provider := &mockStationProvider{
		name: "test-provider",
		err:  ErrProviderUnavailable,
	}

	service := NewService(ServiceConfig{Provider: provider})

	_, err := service.StationsInBox(context.Background(), testBox())
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestService_AlongRoute(t *testing.T) {
	// Straight south-to-north route, roughly 222 km.
	route := []polyline.Coordinate{
		{Lat: 14.0, Lon: 121.0},
		{Lat: 16.0, Lon: 121.0},
	}

	provider := &mockStationProvider{
		name: "test-provider",
		stations: []Station{
			// On the route, about halfway.
			{ID: "on-route", Position: Point{Lat: 15.0, Lon: 121.0}, PowerKW: 150},
			// Roughly 30 km east of the corridor.
			{ID: "off-route", Position: Point{Lat: 15.0, Lon: 121.3}, PowerKW: 350},
		},
	}

	service := NewService(ServiceConfig{
		Provider:   provider,
		CorridorKm: 5,
	})

	resolved, err := service.AlongRoute(context.Background(), route)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resolved) != 1 {
		t.Fatalf("expected 1 station along route, got %d", len(resolved))
	}
	if resolved[0].Station.ID != "on-route" {
		t.Errorf("expected on-route station, got %s", resolved[0].Station.ID)
	}

	// Offset should be about half the route length.
	offset := resolved[0].Station.RouteOffsetKm
	if offset < 100 || offset > 125 {
		t.Errorf("expected offset near 111 km, got %v", offset)
	}

	// Defaults resolved on the way out.
	if resolved[0].PricePerKWh == 0 {
		t.Error("expected resolved price")
	}
}

func TestService_AlongRoute_DegenerateRoute(t *testing.T) {
	provider := &mockStationProvider{name: "test-provider"}
	service := NewService(ServiceConfig{Provider: provider})

	resolved, err := service.AlongRoute(context.Background(), []polyline.Coordinate{{Lat: 15, Lon: 121}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != nil {
		t.Errorf("expected nil for degenerate route, got %v", resolved)
	}
	if provider.callCount.Load() != 0 {
		t.Error("expected no provider call for degenerate route")
	}
}

func TestService_RefreshBox(t *testing.T) {
	provider := &mockStationProvider{
		name: "test-provider",
		stations: []Station{
			{ID: "a", Position: Point{Lat: 15, Lon: 121}},
			{ID: "b", Position: Point{Lat: 15.5, Lon: 121}},
		},
	}
	repo := NewInMemoryRepository()

	service := NewService(ServiceConfig{
		Provider:   provider,
		Repository: repo,
	})

	count, err := service.RefreshBox(context.Background(), testBox())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 stations refreshed, got %d", count)
	}

	// Snapshots persisted with a refresh timestamp.
	stored, err := repo.ListInBox(context.Background(), testBox())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 persisted stations, got %d", len(stored))
	}
	for _, st := range stored {
		if st.UpdatedAt.IsZero() {
			t.Error("expected refresh timestamp on persisted station")
		}
	}

	// Cache warmed: discovery should not hit the provider again.
	before := provider.callCount.Load()
	if _, err := service.StationsInBox(context.Background(), testBox()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.callCount.Load() != before {
		t.Error("expected refresh to warm the discovery cache")
	}
}

func TestService_InvalidateCache(t *testing.T) {
	provider := &mockStationProvider{name: "test-provider"}
	service := NewService(ServiceConfig{Provider: provider})

	if _, err := service.StationsInBox(context.Background(), testBox()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service.InvalidateCache()

	if _, err := service.StationsInBox(context.Background(), testBox()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.callCount.Load() != 2 {
		t.Errorf("expected provider call after invalidation, got %d calls", provider.callCount.Load())
	}
}
