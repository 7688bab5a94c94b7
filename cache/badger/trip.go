package badger

import (
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	cacheT "tripsync/cache/cache"
	"tripsync/config"
	dbt "tripsync/db/db"
)

// badgerTripCache persists owner snapshots in an embedded BadgerDB instance.
// One key per owner, value is the JSON-encoded trip slice.
type badgerTripCache struct {
	db *badgerdb.DB
}

// Open opens (or creates) a BadgerDB-backed trip cache at dir. An empty dir
// opens an in-memory instance, which is what tests use.
func Open(dir string) (cacheT.TripCache, func() error, error) {
	opts := badgerdb.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	// Badger's own logging is noise at this layer.
	opts = opts.WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open badger cache: %w", err)
	}
	return &badgerTripCache{db: db}, db.Close, nil
}

func snapshotKey(ownerID string) []byte {
	return []byte(fmt.Sprintf("%s/trips/%s", config.AppName, ownerID))
}

// Save replaces the stored snapshot for ownerID.
func (c *badgerTripCache) Save(ownerID string, trips []dbt.Trip) error {
	encoded, err := json.Marshal(trips)
	if err != nil {
		return fmt.Errorf("failed to encode trip snapshot: %w", err)
	}
	err = c.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(snapshotKey(ownerID), encoded)
	})
	if err != nil {
		return fmt.Errorf("failed to write trip snapshot: %w", err)
	}
	return nil
}

// Load returns the last saved snapshot for ownerID. A missing key or a
// snapshot that no longer decodes yields an empty collection.
func (c *badgerTripCache) Load(ownerID string) ([]dbt.Trip, error) {
	var trips []dbt.Trip
	err := c.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(snapshotKey(ownerID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &trips)
		})
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return []dbt.Trip{}, nil
		}
		var jsonErr *json.SyntaxError
		if errors.As(err, &jsonErr) {
			return []dbt.Trip{}, nil
		}
		return []dbt.Trip{}, fmt.Errorf("failed to read trip snapshot: %w", err)
	}
	if trips == nil {
		trips = []dbt.Trip{}
	}
	return trips, nil
}
