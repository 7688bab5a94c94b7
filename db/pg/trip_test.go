package pg

// These tests run against a real PostgreSQL instance with the trips schema
// migrated. They are skipped unless DATABASE_URL is set.

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	dbt "tripsync/db/db"
)

var testDB *gorm.DB
var gateway dbt.TripGateway

func initTest(t *testing.T) {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("Skipping test: DATABASE_URL not set. Please provide a migrated PostgreSQL instance.")
	}

	var err error
	testDB, err = InitPostgresGORM(CreateDSN())
	if err != nil {
		log.Fatalf("Failed to initialize test database: %v", err)
	}

	gateway = NewGORMTripGateway(testDB)
}

func cleanupTest() {
	log.Println("Cleaning up test database...")
	testDB.Exec("DELETE FROM trips;")
	log.Println("Test database cleaned.")
	CloseGORM(testDB)
}

func sampleTrip(owner string) dbt.Trip {
	now := time.Now().UTC().Truncate(time.Second)
	return dbt.NewTrip("Integration Trip", []string{"alice", "bob"}, now, now.AddDate(0, 0, 3), owner)
}

func TestInsertAndFetchTrips(t *testing.T) {
	initTest(t)
	defer cleanupTest()

	ctx := context.Background()
	owner := "it-owner-" + uuid.NewString()

	trip := sampleTrip(owner)
	require.NoError(t, gateway.InsertTrip(ctx, &trip))

	trips, err := gateway.FetchTrips(ctx, owner)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, trip.ID, trips[0].ID)
	assert.Equal(t, trip.Name, trips[0].Name)
	assert.Equal(t, []string{"alice", "bob"}, trips[0].Members)
	assert.False(t, trips[0].HasArtifact())

	// Duplicate insert must fail on the primary key.
	assert.Error(t, gateway.InsertTrip(ctx, &trip))
}

func TestUpdateTripPersistsArtifact(t *testing.T) {
	initTest(t)
	defer cleanupTest()

	ctx := context.Background()
	owner := "it-owner-" + uuid.NewString()

	trip := sampleTrip(owner)
	require.NoError(t, gateway.InsertTrip(ctx, &trip))

	trip.Name = "Renamed"
	trip.Artifact = []byte("image-bytes")
	trip.MessageCount = 3
	require.NoError(t, gateway.UpdateTrip(ctx, &trip))

	trips, err := gateway.FetchTrips(ctx, owner)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "Renamed", trips[0].Name)
	assert.Equal(t, []byte("image-bytes"), trips[0].Artifact)
	assert.Equal(t, 3, trips[0].MessageCount)
}

func TestUpdateTripUnknownID(t *testing.T) {
	initTest(t)
	defer cleanupTest()

	ghost := sampleTrip("it-owner-" + uuid.NewString())
	err := gateway.UpdateTrip(context.Background(), &ghost)
	assert.ErrorIs(t, err, dbt.ErrTripNotFound)
}

func TestDeleteTrip(t *testing.T) {
	initTest(t)
	defer cleanupTest()

	ctx := context.Background()
	owner := "it-owner-" + uuid.NewString()

	trip := sampleTrip(owner)
	require.NoError(t, gateway.InsertTrip(ctx, &trip))

	// Wrong owner must not delete.
	assert.ErrorIs(t, gateway.DeleteTrip(ctx, trip.ID, "someone-else"), dbt.ErrTripNotFound)

	require.NoError(t, gateway.DeleteTrip(ctx, trip.ID, owner))
	trips, err := gateway.FetchTrips(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestFetchTripsOrdering(t *testing.T) {
	initTest(t)
	defer cleanupTest()

	ctx := context.Background()
	owner := "it-owner-" + uuid.NewString()

	older := sampleTrip(owner)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := sampleTrip(owner)
	require.NoError(t, gateway.InsertTrip(ctx, &older))
	require.NoError(t, gateway.InsertTrip(ctx, &newer))

	trips, err := gateway.FetchTrips(ctx, owner)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, newer.ID, trips[0].ID, "newest trip comes first")
}
