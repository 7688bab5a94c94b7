package cache

import (
	dbt "tripsync/db/db"
)

// TripCache is the best-effort local fallback store. It persists the full
// trip collection of an owner as a single snapshot; partial updates are not
// supported because the snapshot is only read when the remote store is
// unreachable.
//
// Implementations must treat a missing or undecodable snapshot as an empty
// collection, never as an error the caller has to act on.
type TripCache interface {
	// Save replaces the stored snapshot for ownerID.
	Save(ownerID string, trips []dbt.Trip) error
	// Load returns the last saved snapshot for ownerID, empty on miss.
	Load(ownerID string) ([]dbt.Trip, error)
}
