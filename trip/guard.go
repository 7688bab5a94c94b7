package trip

import (
	"sync"

	"github.com/google/uuid"
)

// Guard tracks trips whose artifact is currently being generated and
// enforces at-most-one in-flight enrichment per trip id. TryBegin/End is the
// whole surface: a separate contains-then-insert pair would be a
// check-then-act race.
type Guard struct {
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// TryBegin atomically claims id. It returns false when another worker
// already holds the claim; the caller must then skip the trip entirely.
func (g *Guard) TryBegin(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.inFlight[id]; exists {
		return false
	}
	g.inFlight[id] = struct{}{}
	return true
}

// End releases the claim on id. Callers defer this right after a successful
// TryBegin so every exit path releases exactly once.
func (g *Guard) End(id uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.inFlight, id)
}
