package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTripNotFound is returned by gateways when no trip matches the
// (id, owner) pair of an update or delete.
var ErrTripNotFound = errors.New("trip not found")

// TripGateway is the remote store for trips. All operations are scoped by
// owner; errors are recoverable by callers through the local cache and must
// never be treated as fatal by the read path.
type TripGateway interface {
	// FetchTrips returns all trips of an owner, newest created first.
	FetchTrips(ctx context.Context, ownerID string) ([]Trip, error)
	// InsertTrip stores a new trip.
	InsertTrip(ctx context.Context, trip *Trip) error
	// UpdateTrip replaces the stored trip keyed by (trip.ID, trip.OwnerID).
	UpdateTrip(ctx context.Context, trip *Trip) error
	// DeleteTrip removes the trip keyed by (id, ownerID).
	DeleteTrip(ctx context.Context, id uuid.UUID, ownerID string) error
}
