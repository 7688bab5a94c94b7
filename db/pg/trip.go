package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbt "tripsync/db/db"
)

// GORMTripGateway is a GORM-based PostgreSQL implementation of dbt.TripGateway.
type GORMTripGateway struct {
	db *gorm.DB
}

// NewGORMTripGateway creates and returns a new instance of GORMTripGateway.
func NewGORMTripGateway(db *gorm.DB) dbt.TripGateway {
	return &GORMTripGateway{
		db: db,
	}
}

func toModel(trip *dbt.Trip) TripModel {
	return TripModel{
		ID:              trip.ID,
		Name:            trip.Name,
		Members:         trip.Members,
		StartDate:       trip.StartDate,
		EndDate:         trip.EndDate,
		LastMessageDate: trip.LastMessageDate,
		MessageCount:    trip.MessageCount,
		OwnerID:         trip.OwnerID,
		Artifact:        trip.Artifact,
		CreatedAt:       trip.CreatedAt,
	}
}

func fromModel(m *TripModel) dbt.Trip {
	return dbt.Trip{
		ID:              m.ID,
		Name:            m.Name,
		Members:         m.Members,
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
		LastMessageDate: m.LastMessageDate,
		MessageCount:    m.MessageCount,
		OwnerID:         m.OwnerID,
		Artifact:        m.Artifact,
		CreatedAt:       m.CreatedAt,
	}
}

// FetchTrips retrieves all trips of an owner, newest created first.
func (pgdb *GORMTripGateway) FetchTrips(ctx context.Context, ownerID string) ([]dbt.Trip, error) {
	var models []TripModel
	result := pgdb.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch trips for owner %s: %w", ownerID, result.Error)
	}

	trips := make([]dbt.Trip, 0, len(models))
	for i := range models {
		trips = append(trips, fromModel(&models[i]))
	}
	return trips, nil
}

// InsertTrip creates a new trip row using GORM.
func (pgdb *GORMTripGateway) InsertTrip(ctx context.Context, trip *dbt.Trip) error {
	model := toModel(trip)
	result := pgdb.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "duplicate key value violates unique constraint") {
			return fmt.Errorf("trip with ID %s already exists: %w", trip.ID, result.Error)
		}
		return fmt.Errorf("failed to insert trip: %w", result.Error)
	}
	return nil
}

// UpdateTrip replaces the stored trip keyed by (ID, OwnerID).
func (pgdb *GORMTripGateway) UpdateTrip(ctx context.Context, trip *dbt.Trip) error {
	model := toModel(trip)
	result := pgdb.db.WithContext(ctx).
		Model(&TripModel{}).
		Where("id = ? AND owner_id = ?", trip.ID, trip.OwnerID).
		Select("Name", "Members", "StartDate", "EndDate", "LastMessageDate", "MessageCount", "Artifact").
		Updates(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("update trip %s: %w", trip.ID, dbt.ErrTripNotFound)
		}
		return fmt.Errorf("failed to update trip %s: %w", trip.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update trip %s: %w", trip.ID, dbt.ErrTripNotFound)
	}
	return nil
}

// DeleteTrip removes the trip keyed by (id, ownerID).
func (pgdb *GORMTripGateway) DeleteTrip(ctx context.Context, id uuid.UUID, ownerID string) error {
	result := pgdb.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&TripModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete trip %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete trip %s: %w", id, dbt.ErrTripNotFound)
	}
	return nil
}
