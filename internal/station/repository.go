package station

import (
	"context"
	"sync"
	"time"
)

// Repository defines the interface for station snapshot persistence.
// Snapshots are the worker's refreshed copies of provider data; the service
// falls back to them when the provider and the in-memory cache both fail.
type Repository interface {
	// Upsert stores or replaces a batch of station snapshots.
	Upsert(ctx context.Context, stations []Station) error

	// ListInBox retrieves stored stations within a bounding box.
	ListInBox(ctx context.Context, box GeoBox) ([]Station, error)

	// DeleteStale removes stations not refreshed since the cutoff.
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for MVP/testing. Production should use a database-backed implementation.
type InMemoryRepository struct {
	mu       sync.RWMutex
	stations map[string]Station
}

// NewInMemoryRepository creates a new in-memory station repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		stations: make(map[string]Station),
	}
}

// Upsert stores or replaces a batch of station snapshots.
func (r *InMemoryRepository) Upsert(_ context.Context, stations []Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range stations {
		r.stations[st.ID] = st
	}
	return nil
}

// ListInBox retrieves stored stations within a bounding box.
func (r *InMemoryRepository) ListInBox(_ context.Context, box GeoBox) ([]Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Station
	for _, st := range r.stations {
		if box.Contains(st.Position) {
			out = append(out, st)
		}
	}
	return out, nil
}

// DeleteStale removes stations not refreshed since the cutoff.
func (r *InMemoryRepository) DeleteStale(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, st := range r.stations {
		if st.UpdatedAt.Before(cutoff) {
			delete(r.stations, id)
			removed++
		}
	}
	return removed, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
