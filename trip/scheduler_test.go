package trip_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheMem "tripsync/cache/mem"
	dbMem "tripsync/db/mem"
	"tripsync/trip"
)

// countingProvider records every fetch and returns a fixed artifact.
type countingProvider struct {
	mu      sync.Mutex
	queries []string
	calls   atomic.Int32
	delay   time.Duration
	err     error
}

func (p *countingProvider) FetchImage(_ context.Context, query string, _ int) ([]byte, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.queries = append(p.queries, query)
	p.mu.Unlock()
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return nil, p.err
	}
	return []byte("image-bytes"), nil
}

func newSchedulerStore(t *testing.T, names ...string) *trip.Store {
	t.Helper()
	store := trip.NewStore(testOwner, dbMem.NewInMemoryTripGateway(), cacheMem.NewInMemoryTripCache())
	for _, name := range names {
		tr := makeTrip(name, time.Now(), time.Now().AddDate(0, 0, 1))
		require.NoError(t, store.AddTrip(context.Background(), &tr))
	}
	return store
}

func TestSchedulerEnrichesAllPending(t *testing.T) {
	store := newSchedulerStore(t, "Murree Trip", "Tokyo Adventure", "Paris, France", "Weekend Getaway")
	provider := &countingProvider{}
	sched := trip.NewScheduler(store, provider, trip.WithBatchPause(0))

	require.NoError(t, sched.Run(context.Background()))

	assert.Equal(t, int32(4), provider.calls.Load())
	for _, tr := range store.Trips() {
		assert.True(t, tr.HasArtifact(), "trip %q must carry an artifact", tr.Name)
	}

	provider.mu.Lock()
	assert.Contains(t, provider.queries, "Murree")
	assert.Contains(t, provider.queries, "Japan")
	assert.Contains(t, provider.queries, "France")
	assert.Contains(t, provider.queries, "Getaway")
	provider.mu.Unlock()
}

func TestSchedulerRerunIsNoOp(t *testing.T) {
	store := newSchedulerStore(t, "Bali Retreat", "Lisbon Weekend")
	provider := &countingProvider{}
	sched := trip.NewScheduler(store, provider, trip.WithBatchPause(0))

	require.NoError(t, sched.Run(context.Background()))
	first := provider.calls.Load()

	require.NoError(t, sched.Run(context.Background()))
	assert.Equal(t, first, provider.calls.Load(), "enriched trips must never be fetched again")
}

func TestSchedulerSkipsTripsWithArtifact(t *testing.T) {
	store := newSchedulerStore(t)
	done := makeTrip("Already Done", time.Now(), time.Now())
	done.Artifact = []byte("existing")
	require.NoError(t, store.AddTrip(context.Background(), &done))
	pending := makeTrip("Still Pending", time.Now(), time.Now())
	require.NoError(t, store.AddTrip(context.Background(), &pending))

	provider := &countingProvider{}
	sched := trip.NewScheduler(store, provider, trip.WithBatchPause(0))
	require.NoError(t, sched.Run(context.Background()))

	assert.Equal(t, int32(1), provider.calls.Load())

	got, err := store.TripByID(done.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("existing"), got.Artifact, "existing artifacts are never replaced")
}

func TestSchedulerConcurrentRunsFetchAtMostOnce(t *testing.T) {
	store := newSchedulerStore(t, "Solo Trip")
	provider := &countingProvider{delay: 20 * time.Millisecond}
	sched := trip.NewScheduler(store, provider, trip.WithBatchPause(0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sched.Run(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), provider.calls.Load(), "overlapping passes must not double-fetch")
}

func TestSchedulerFailedFetchStaysPending(t *testing.T) {
	store := newSchedulerStore(t, "Flaky")
	provider := &countingProvider{err: errors.New("provider down")}
	sched := trip.NewScheduler(store, provider, trip.WithBatchPause(0))

	require.NoError(t, sched.Run(context.Background()), "a per-trip failure must not abort the pass")

	trips := store.Trips()
	require.Len(t, trips, 1)
	assert.False(t, trips[0].HasArtifact())

	// The next pass retries the failed trip.
	provider.err = nil
	require.NoError(t, sched.Run(context.Background()))
	trips = store.Trips()
	assert.True(t, trips[0].HasArtifact())
}

func TestSchedulerBatchPacing(t *testing.T) {
	store := newSchedulerStore(t,
		"One", "Two", "Three", "Four", "Five", "Six", "Seven")
	provider := &countingProvider{}
	clock := clockwork.NewFakeClock()
	sched := trip.NewScheduler(store, provider, trip.WithSchedulerClock(clock))

	done := make(chan error, 1)
	go func() { done <- sched.Run(context.Background()) }()

	// First batch of three runs immediately, then Run parks on the pause
	// timer before each following batch.
	clock.BlockUntil(1)
	assert.Equal(t, int32(3), provider.calls.Load())

	clock.Advance(trip.DefaultBatchPause)
	clock.BlockUntil(1)
	assert.Equal(t, int32(6), provider.calls.Load())

	clock.Advance(trip.DefaultBatchPause)
	require.NoError(t, <-done)
	assert.Equal(t, int32(7), provider.calls.Load())
}

func TestSchedulerRunCancelledBetweenBatches(t *testing.T) {
	store := newSchedulerStore(t, "One", "Two", "Three", "Four")
	provider := &countingProvider{}
	clock := clockwork.NewFakeClock()
	sched := trip.NewScheduler(store, provider, trip.WithSchedulerClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	clock.BlockUntil(1)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(3), provider.calls.Load(), "the second batch must not start after cancel")
}

func TestSchedulerKickTriggersRun(t *testing.T) {
	store := newSchedulerStore(t, "Kicked")
	provider := &countingProvider{}
	sched := trip.NewScheduler(store, provider, trip.WithBatchPause(0))
	store.SetKick(sched.Kick)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	sched.Kick()

	assert.Eventually(t, func() bool {
		trips := store.Trips()
		return len(trips) == 1 && trips[0].HasArtifact()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerCustomBatchSize(t *testing.T) {
	store := newSchedulerStore(t, "A", "B", "C")
	provider := &countingProvider{}
	clock := clockwork.NewFakeClock()
	sched := trip.NewScheduler(store, provider,
		trip.WithBatchSize(1), trip.WithSchedulerClock(clock))

	done := make(chan error, 1)
	go func() { done <- sched.Run(context.Background()) }()

	clock.BlockUntil(1)
	assert.Equal(t, int32(1), provider.calls.Load())
	clock.Advance(trip.DefaultBatchPause)
	clock.BlockUntil(1)
	assert.Equal(t, int32(2), provider.calls.Load())
	clock.Advance(trip.DefaultBatchPause)
	require.NoError(t, <-done)
	assert.Equal(t, int32(3), provider.calls.Load())
}
