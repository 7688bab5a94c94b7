package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInitTrips, downInitTrips)
}

func upInitTrips(ctx context.Context, tx *sql.Tx) error {
	// Create trips table
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE trips (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			members JSONB NOT NULL DEFAULT '[]'::jsonb,
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			last_message_date TIMESTAMPTZ,
			message_count INTEGER NOT NULL DEFAULT 0,
			owner_id VARCHAR(255) NOT NULL,
			artifact BYTEA,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	// FetchTrips filters by owner and orders by creation time
	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_trips_owner_id ON trips(owner_id);`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_trips_owner_id_created_at ON trips(owner_id, created_at DESC);`)
	if err != nil {
		return err
	}

	return nil
}

func downInitTrips(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS trips;`)
	if err != nil {
		return err
	}

	return nil
}
