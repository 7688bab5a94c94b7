package db

import (
	"time"

	"github.com/google/uuid"
)

// Trip is the core entity of the application. A trip is owned by a single
// user and carries an optional Artifact: the destination background image
// produced by the enrichment pipeline. A nil Artifact means the trip is
// still eligible for enrichment.
type Trip struct {
	ID              uuid.UUID
	Name            string
	Members         []string
	StartDate       time.Time
	EndDate         time.Time
	CreatedAt       time.Time
	LastMessageDate *time.Time
	MessageCount    int
	OwnerID         string
	Artifact        []byte
}

// NewTrip builds a trip with a fresh ID, zero message count and no artifact.
func NewTrip(name string, members []string, startDate, endDate time.Time, ownerID string) Trip {
	return Trip{
		ID:        uuid.New(),
		Name:      name,
		Members:   append([]string(nil), members...),
		StartDate: startDate,
		EndDate:   endDate,
		CreatedAt: time.Now(),
		OwnerID:   ownerID,
	}
}

// IsOngoingAt reports whether the trip's end date (calendar day) is the same
// day as now or later. The result depends on the supplied instant, so callers
// must not cache it across day boundaries.
func (t *Trip) IsOngoingAt(now time.Time) bool {
	today := startOfDay(now)
	endDay := startOfDay(t.EndDate)
	return !endDay.Before(today)
}

// IsPastAt is the negation of IsOngoingAt for the same instant.
func (t *Trip) IsPastAt(now time.Time) bool {
	return !t.IsOngoingAt(now)
}

// HasArtifact reports whether the enrichment pipeline has already produced a
// background image for this trip. Once true, the trip must never re-enter
// the pipeline.
func (t *Trip) HasArtifact() bool {
	return len(t.Artifact) > 0
}

// Clone returns a deep copy so that callers can hand trips across goroutine
// boundaries without sharing the Members or Artifact backing arrays.
func (t *Trip) Clone() Trip {
	out := *t
	out.Members = append([]string(nil), t.Members...)
	if t.Artifact != nil {
		out.Artifact = append([]byte(nil), t.Artifact...)
	}
	if t.LastMessageDate != nil {
		d := *t.LastMessageDate
		out.LastMessageDate = &d
	}
	return out
}

func startOfDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}
