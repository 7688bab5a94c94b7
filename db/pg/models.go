package pg

import (
	"time"

	"github.com/google/uuid"
)

type TripModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"size:255;not null"`
	Members         []string  `gorm:"serializer:json;type:jsonb"`
	StartDate       time.Time `gorm:"not null"`
	EndDate         time.Time `gorm:"not null"`
	LastMessageDate *time.Time
	MessageCount    int    `gorm:"not null;default:0"`
	OwnerID         string `gorm:"size:255;not null;index"`
	Artifact        []byte `gorm:"type:bytea"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for TripModel.
func (TripModel) TableName() string {
	return "trips"
}
