package trip_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"tripsync/trip"
)

func TestGuardTryBegin(t *testing.T) {
	g := trip.NewGuard()
	id := uuid.New()

	assert.True(t, g.TryBegin(id), "first claim must succeed")
	assert.False(t, g.TryBegin(id), "second claim must fail while in flight")

	g.End(id)
	assert.True(t, g.TryBegin(id), "claim must succeed again after End")
}

func TestGuardIndependentIDs(t *testing.T) {
	g := trip.NewGuard()
	a, b := uuid.New(), uuid.New()

	assert.True(t, g.TryBegin(a))
	assert.True(t, g.TryBegin(b), "claims on different ids are independent")
}

func TestGuardEndWithoutBeginIsHarmless(t *testing.T) {
	g := trip.NewGuard()
	id := uuid.New()

	g.End(id)
	assert.True(t, g.TryBegin(id))
}

func TestGuardConcurrentClaims(t *testing.T) {
	g := trip.NewGuard()
	id := uuid.New()

	const workers = 64
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryBegin(id) {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one goroutine may claim an id")
}
