package trip

import (
	"context"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"tripsync/image"
	"tripsync/infer"
)

const (
	// DefaultBatchSize bounds how many image fetches run concurrently.
	DefaultBatchSize = 3
	// DefaultBatchPause is the fixed delay between consecutive batches so
	// the image provider never sees a burst larger than one batch.
	DefaultBatchPause = 2 * time.Second
)

// Scheduler drives the enrichment pipeline: it scans the store for trips
// without an artifact, infers a destination from each trip name and fetches
// a background image in bounded batches. The Guard plus a presence re-check
// inside each worker give at-most-once enrichment per trip, and artifact
// presence alone makes a full re-run a no-op.
type Scheduler struct {
	store    *Store
	provider image.Provider
	guard    *Guard
	clock    clockwork.Clock
	logger   *slog.Logger

	batchSize int
	pause     time.Duration

	kicks chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithBatchSize overrides the per-batch concurrency bound.
func WithBatchSize(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchPause overrides the inter-batch delay.
func WithBatchPause(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.pause = d }
}

// WithSchedulerClock overrides the pacing clock, for tests.
func WithSchedulerClock(clock clockwork.Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = clock }
}

// WithSchedulerLogger overrides the default logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler creates a Scheduler over store backed by provider.
func NewScheduler(store *Store, provider image.Provider, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		store:     store,
		provider:  provider,
		guard:     NewGuard(),
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
		batchSize: DefaultBatchSize,
		pause:     DefaultBatchPause,
		kicks:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kick requests an enrichment pass. It never blocks; a pending kick
// coalesces with later ones until Start's loop picks it up.
func (s *Scheduler) Kick() {
	select {
	case s.kicks <- struct{}{}:
	default:
	}
}

// Start runs the kick loop until ctx is cancelled. Callers typically wire
// Store.SetKick to Kick before calling Start.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.kicks:
				if err := s.Run(ctx); err != nil {
					s.logger.Warn("enrichment pass aborted", "err", err)
				}
			}
		}
	}()
}

// Run performs one full enrichment pass over every trip that still lacks an
// artifact. Per-trip failures are logged and skipped; the only error Run
// returns is context cancellation between batches.
func (s *Scheduler) Run(ctx context.Context) error {
	pending := s.pendingIDs()
	if len(pending) == 0 {
		return nil
	}

	for start := 0; start < len(pending); start += s.batchSize {
		if start > 0 {
			select {
			case <-s.clock.After(s.pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		end := start + s.batchSize
		if end > len(pending) {
			end = len(pending)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, id := range pending[start:end] {
			id := id
			g.Go(func() error {
				s.enrichOne(gctx, id)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// pendingIDs snapshots the ids of trips that still need an artifact.
func (s *Scheduler) pendingIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, t := range s.store.Trips() {
		if !t.HasArtifact() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// enrichOne fetches and attaches the artifact for one trip. The guard claim
// plus the fresh presence re-check make concurrent passes skip trips that
// are already in flight or already done.
func (s *Scheduler) enrichOne(ctx context.Context, id uuid.UUID) {
	if !s.guard.TryBegin(id) {
		return
	}
	defer s.guard.End(id)

	t, err := s.store.TripByID(id)
	if err != nil {
		return
	}
	if t.HasArtifact() {
		return
	}

	dest := infer.Destination(t.Name)
	artifact, err := s.provider.FetchImage(ctx, dest, variationOf(id))
	if err != nil {
		s.logger.Warn("image fetch failed, trip stays pending",
			"trip", id, "destination", dest, "err", err)
		return
	}

	if err := s.store.SetArtifact(ctx, id, artifact); err != nil {
		s.logger.Warn("artifact attach failed", "trip", id, "err", err)
		return
	}
	s.logger.Info("trip enriched", "trip", id, "destination", dest)
}

// variationOf derives a stable variation index from the trip id so the same
// trip always asks the provider for the same image.
func variationOf(id uuid.UUID) int {
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	return int(h.Sum32() % 1000)
}
