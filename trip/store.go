package trip

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	cacheT "tripsync/cache/cache"
	dbt "tripsync/db/db"
	"tripsync/libs/diff"
	"tripsync/mq/mq"
)

// Store coordinates one owner's trips across a remote gateway and a local
// cache. Reads prefer the remote source and fall back to the last cached
// snapshot; mutations apply locally first and push to the remote best
// effort, so the in-memory state is always authoritative for the session.
// After every mutation the full snapshot is mirrored into the cache.
type Store struct {
	ownerID string
	remote  dbt.TripGateway
	cache   cacheT.TripCache
	events  mq.TripEventBus
	clock   clockwork.Clock
	logger  *slog.Logger

	mu    sync.RWMutex
	trips []dbt.Trip

	// generation increments on every mutation so callers can cheaply
	// detect that categorized views went stale.
	generation atomic.Uint64

	// kick is invoked after mutations that may leave trips without an
	// artifact, typically wired to Scheduler.Kick.
	kick func()
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithEventBus publishes trip lifecycle events to bus, best effort.
func WithEventBus(bus mq.TripEventBus) StoreOption {
	return func(s *Store) { s.events = bus }
}

// WithClock overrides the wall clock, for tests.
func WithClock(clock clockwork.Clock) StoreOption {
	return func(s *Store) { s.clock = clock }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a Store for one owner. remote and cache are required.
func NewStore(ownerID string, remote dbt.TripGateway, cache cacheT.TripCache, opts ...StoreOption) *Store {
	s := &Store{
		ownerID: ownerID,
		remote:  remote,
		cache:   cache,
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OwnerID returns the owner this store is scoped to.
func (s *Store) OwnerID() string {
	return s.ownerID
}

// SetKick registers a callback fired after mutations that may require
// enrichment. Must be called before the store is shared across goroutines.
func (s *Store) SetKick(fn func()) {
	s.kick = fn
}

// LoadTrips refreshes the working set from the remote gateway. When the
// remote fetch fails it falls back to the cached snapshot and never returns
// an error: a sync problem degrades freshness, not availability.
func (s *Store) LoadTrips(ctx context.Context) {
	trips, err := s.remote.FetchTrips(ctx, s.ownerID)
	if err != nil {
		s.logger.Warn("remote fetch failed, falling back to cached trips",
			"owner", s.ownerID, "err", err)
		cached, cacheErr := s.cache.Load(s.ownerID)
		if cacheErr != nil {
			s.logger.Error("cache load failed, keeping current trips",
				"owner", s.ownerID, "err", cacheErr)
			return
		}
		s.replaceAll(cached, false)
		s.fireKick()
		return
	}
	s.replaceAll(trips, true)
	s.fireKick()
}

// AddTrip appends a new trip. The local set is updated unconditionally; the
// remote insert is best effort and failures only log.
func (s *Store) AddTrip(ctx context.Context, t *dbt.Trip) error {
	if t == nil {
		return fmt.Errorf("nil trip")
	}
	if t.OwnerID == "" {
		t.OwnerID = s.ownerID
	}
	if t.OwnerID != s.ownerID {
		return fmt.Errorf("trip owner %q does not match store owner %q", t.OwnerID, s.ownerID)
	}

	s.mu.Lock()
	if s.indexOfLocked(t.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("trip %s already exists", t.ID)
	}
	s.trips = append(s.trips, t.Clone())
	s.sortLocked()
	s.snapshotLocked()
	s.mu.Unlock()
	s.generation.Add(1)

	if err := s.remote.InsertTrip(ctx, t); err != nil {
		s.logger.Warn("remote insert failed, trip kept locally",
			"trip", t.ID, "err", err)
	}
	s.publish(mq.ActionCreate, t, nil)
	s.fireKick()
	return nil
}

// UpdateTrip replaces the trip with the same id. An unknown id is a silent
// no-op so stale updates from dismissed views cannot resurrect deleted
// trips.
func (s *Store) UpdateTrip(ctx context.Context, t *dbt.Trip) error {
	if t == nil {
		return fmt.Errorf("nil trip")
	}

	s.mu.Lock()
	idx := s.indexOfLocked(t.ID)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	before := s.trips[idx]
	s.trips[idx] = t.Clone()
	s.sortLocked()
	s.snapshotLocked()
	s.mu.Unlock()
	s.generation.Add(1)

	if err := s.remote.UpdateTrip(ctx, t); err != nil {
		s.logger.Warn("remote update failed, trip kept locally",
			"trip", t.ID, "err", err)
	}
	s.publish(mq.ActionUpdate, t, &before)
	return nil
}

// DeleteTrip removes the trip locally and then from the remote gateway. The
// local removal is authoritative: a remote failure only logs.
func (s *Store) DeleteTrip(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return dbt.ErrTripNotFound
	}
	removed := s.trips[idx]
	s.trips = append(s.trips[:idx], s.trips[idx+1:]...)
	s.snapshotLocked()
	s.mu.Unlock()
	s.generation.Add(1)

	if err := s.remote.DeleteTrip(ctx, id, s.ownerID); err != nil {
		s.logger.Warn("remote delete failed, trip removed locally",
			"trip", id, "err", err)
	}
	s.publish(mq.ActionDelete, &removed, nil)
	return nil
}

// AddMessage records one message on the trip: bumps the counter and stamps
// the last message time with the store clock.
func (s *Store) AddMessage(ctx context.Context, id uuid.UUID) error {
	now := s.clock.Now()

	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return dbt.ErrTripNotFound
	}
	before := s.trips[idx]
	s.trips[idx].MessageCount++
	s.trips[idx].LastMessageDate = &now
	updated := s.trips[idx].Clone()
	s.snapshotLocked()
	s.mu.Unlock()
	s.generation.Add(1)

	if err := s.remote.UpdateTrip(ctx, &updated); err != nil {
		s.logger.Warn("remote update failed after message",
			"trip", id, "err", err)
	}
	s.publish(mq.ActionUpdate, &updated, &before)
	return nil
}

// SetArtifact attaches an enrichment artifact to the trip and mirrors the
// change remotely. Unknown ids are a no-op, matching UpdateTrip.
func (s *Store) SetArtifact(ctx context.Context, id uuid.UUID, artifact []byte) error {
	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	before := s.trips[idx]
	s.trips[idx].Artifact = append([]byte(nil), artifact...)
	updated := s.trips[idx].Clone()
	s.snapshotLocked()
	s.mu.Unlock()
	s.generation.Add(1)

	if err := s.remote.UpdateTrip(ctx, &updated); err != nil {
		s.logger.Warn("remote update failed after enrichment",
			"trip", id, "err", err)
	}
	s.publish(mq.ActionEnrich, &updated, &before)
	return nil
}

// Trips returns a copy of all trips, newest first.
func (s *Store) Trips() []dbt.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.trips)
}

// TripByID returns a copy of one trip.
func (s *Store) TripByID(id uuid.UUID) (dbt.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		return dbt.Trip{}, dbt.ErrTripNotFound
	}
	return s.trips[idx].Clone(), nil
}

// OngoingTrips returns trips whose date range covers the current day.
func (s *Store) OngoingTrips() []dbt.Trip {
	now := s.clock.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []dbt.Trip
	for i := range s.trips {
		if s.trips[i].IsOngoingAt(now) {
			out = append(out, s.trips[i].Clone())
		}
	}
	return out
}

// PastTrips returns trips that ended before the current day.
func (s *Store) PastTrips() []dbt.Trip {
	now := s.clock.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []dbt.Trip
	for i := range s.trips {
		if s.trips[i].IsPastAt(now) {
			out = append(out, s.trips[i].Clone())
		}
	}
	return out
}

// Generation returns the mutation counter. Equal values mean no mutation
// happened in between; categorized views derived at the same generation are
// still valid.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// RefreshCategorization re-evaluates ongoing/past membership against the
// current clock and bumps the generation so cached views get rebuilt. The
// categories themselves are computed lazily on read.
func (s *Store) RefreshCategorization() {
	s.generation.Add(1)
}

func (s *Store) replaceAll(trips []dbt.Trip, mirror bool) {
	s.mu.Lock()
	s.trips = cloneAll(trips)
	s.sortLocked()
	if mirror {
		s.snapshotLocked()
	}
	s.mu.Unlock()
	s.generation.Add(1)
}

// indexOfLocked requires s.mu held.
func (s *Store) indexOfLocked(id uuid.UUID) int {
	for i := range s.trips {
		if s.trips[i].ID == id {
			return i
		}
	}
	return -1
}

// sortLocked keeps newest trips first, requires s.mu held.
func (s *Store) sortLocked() {
	sort.SliceStable(s.trips, func(i, j int) bool {
		return s.trips[i].CreatedAt.After(s.trips[j].CreatedAt)
	})
}

// snapshotLocked mirrors the working set into the cache, requires s.mu held.
func (s *Store) snapshotLocked() {
	if err := s.cache.Save(s.ownerID, s.trips); err != nil {
		s.logger.Error("snapshot save failed", "owner", s.ownerID, "err", err)
	}
}

func (s *Store) fireKick() {
	if s.kick != nil {
		s.kick()
	}
}

func (s *Store) publish(action mq.Action, t *dbt.Trip, before *dbt.Trip) {
	if s.events == nil {
		return
	}
	queue := s.events.GetTripEventQueue(action)
	if queue == nil {
		return
	}
	evt := mq.TripEvent{
		TripID:  t.ID,
		OwnerID: s.ownerID,
		Name:    t.Name,
		Changed: changedPaths(before, t),
		At:      s.clock.Now(),
	}
	if err := queue.Publish(evt); err != nil {
		s.logger.Warn("event publish failed", "action", action.String(), "err", err)
	}
}

// tripView is the comparable projection used for change reporting. The raw
// artifact bytes collapse to a presence flag so image payloads never get
// diffed element by element.
type tripView struct {
	ID              uuid.UUID  `diff:"id"`
	Name            string     `diff:"name"`
	Members         []string   `diff:"members"`
	StartDate       time.Time  `diff:"start_date"`
	EndDate         time.Time  `diff:"end_date"`
	LastMessageDate *time.Time `diff:"last_message_date"`
	MessageCount    int        `diff:"message_count"`
	HasArtifact     bool       `diff:"has_artifact"`
}

func viewOf(t *dbt.Trip) tripView {
	return tripView{
		ID:              t.ID,
		Name:            t.Name,
		Members:         t.Members,
		StartDate:       t.StartDate,
		EndDate:         t.EndDate,
		LastMessageDate: t.LastMessageDate,
		MessageCount:    t.MessageCount,
		HasArtifact:     t.HasArtifact(),
	}
}

// changedPaths reports dotted field paths that differ between two trip
// states. A nil before means every path is new, so no list is reported.
func changedPaths(before, after *dbt.Trip) []string {
	if before == nil || after == nil {
		return nil
	}
	changelog, err := diff.GetCustomDiffer().Diff(viewOf(before), viewOf(after))
	if err != nil {
		return nil
	}
	paths := make([]string, 0, len(changelog))
	for _, change := range changelog {
		paths = append(paths, joinPath(change.Path))
	}
	return paths
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

func cloneAll(trips []dbt.Trip) []dbt.Trip {
	out := make([]dbt.Trip, 0, len(trips))
	for i := range trips {
		out = append(out, trips[i].Clone())
	}
	return out
}
