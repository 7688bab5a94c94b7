package mem

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	dbt "tripsync/db/db"
)

// inMemoryTripGateway is an in-memory implementation of dbt.TripGateway.
// It keeps trips in a map keyed by trip ID and is safe for concurrent use.
// Useful for tests and for running the server without a database.
type inMemoryTripGateway struct {
	trips map[uuid.UUID]*dbt.Trip

	mu sync.RWMutex
}

// NewInMemoryTripGateway creates and returns a new instance of inMemoryTripGateway.
func NewInMemoryTripGateway() dbt.TripGateway {
	return &inMemoryTripGateway{
		trips: make(map[uuid.UUID]*dbt.Trip),
	}
}

// FetchTrips returns all trips owned by ownerID, newest created first.
func (g *inMemoryTripGateway) FetchTrips(_ context.Context, ownerID string) ([]dbt.Trip, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]dbt.Trip, 0)
	for _, trip := range g.trips {
		if trip.OwnerID != ownerID {
			continue
		}
		// Return copies to prevent external modification of stored trips.
		out = append(out, trip.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// InsertTrip stores a new trip in memory.
func (g *inMemoryTripGateway) InsertTrip(_ context.Context, trip *dbt.Trip) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.trips[trip.ID]; exists {
		return fmt.Errorf("trip with ID %s already exists", trip.ID)
	}

	stored := trip.Clone()
	g.trips[trip.ID] = &stored
	return nil
}

// UpdateTrip replaces an existing trip keyed by (ID, OwnerID).
func (g *inMemoryTripGateway) UpdateTrip(_ context.Context, trip *dbt.Trip) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	existing, exists := g.trips[trip.ID]
	if !exists || existing.OwnerID != trip.OwnerID {
		return fmt.Errorf("update trip %s: %w", trip.ID, dbt.ErrTripNotFound)
	}

	stored := trip.Clone()
	g.trips[trip.ID] = &stored
	return nil
}

// DeleteTrip removes the trip keyed by (id, ownerID).
func (g *inMemoryTripGateway) DeleteTrip(_ context.Context, id uuid.UUID, ownerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	existing, exists := g.trips[id]
	if !exists || existing.OwnerID != ownerID {
		return fmt.Errorf("delete trip %s: %w", id, dbt.ErrTripNotFound)
	}

	delete(g.trips, id)
	return nil
}
