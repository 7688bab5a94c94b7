package mem

import (
	"sync"

	cacheT "tripsync/cache/cache"
	dbt "tripsync/db/db"
)

// inMemoryTripCache is a map-backed cacheT.TripCache for tests and dev mode.
type inMemoryTripCache struct {
	snapshots map[string][]dbt.Trip

	mu sync.RWMutex
}

// NewInMemoryTripCache creates an empty in-memory trip cache.
func NewInMemoryTripCache() cacheT.TripCache {
	return &inMemoryTripCache{
		snapshots: make(map[string][]dbt.Trip),
	}
}

// Save replaces the snapshot for ownerID with deep copies of trips.
func (c *inMemoryTripCache) Save(ownerID string, trips []dbt.Trip) error {
	stored := make([]dbt.Trip, 0, len(trips))
	for i := range trips {
		stored = append(stored, trips[i].Clone())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[ownerID] = stored
	return nil
}

// Load returns a copy of the snapshot for ownerID, empty on miss.
func (c *inMemoryTripCache) Load(ownerID string) ([]dbt.Trip, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stored, ok := c.snapshots[ownerID]
	if !ok {
		return []dbt.Trip{}, nil
	}
	out := make([]dbt.Trip, 0, len(stored))
	for i := range stored {
		out = append(out, stored[i].Clone())
	}
	return out, nil
}
