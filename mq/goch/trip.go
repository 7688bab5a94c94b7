package goch

import (
	"sync"

	"github.com/google/uuid"

	"tripsync/mq/mq"
)

// ChannelTripEventQueue implements mq.TripEventQueue with in-process
// channels. Each subscriber gets its own buffered channel; slow subscribers
// drop events rather than blocking the publisher.
type ChannelTripEventQueue struct {
	action mq.Action

	mu        sync.RWMutex
	consumers map[uuid.UUID]*consumer
}

type consumer struct {
	ownerID string
	ch      chan mq.TripEvent
}

// GoChanTripEventBus implements mq.TripEventBus over channel queues.
type GoChanTripEventBus struct {
	queues [mq.ActionCnt]mq.TripEventQueue
}

// GetTripEventQueue returns the queue for one action, nil for out-of-range.
func (b *GoChanTripEventBus) GetTripEventQueue(action mq.Action) mq.TripEventQueue {
	if action < 0 || action >= mq.ActionCnt {
		return nil
	}
	return b.queues[action]
}

// NewGoChanTripEventBus creates one channel queue per trip action.
func NewGoChanTripEventBus() mq.TripEventBus {
	bus := GoChanTripEventBus{}
	for action := mq.Action(0); action < mq.ActionCnt; action++ {
		bus.queues[action] = NewChannelTripEventQueue(action)
	}
	return &bus
}

// NewChannelTripEventQueue creates a queue for a single action.
func NewChannelTripEventQueue(action mq.Action) *ChannelTripEventQueue {
	return &ChannelTripEventQueue{
		action:    action,
		consumers: make(map[uuid.UUID]*consumer),
	}
}

// GetAction returns the action associated with this queue.
func (q *ChannelTripEventQueue) GetAction() mq.Action {
	return q.action
}

// Publish fans the event out to every subscriber of the matching owner.
// Sends are non-blocking: a subscriber whose buffer is full misses the event.
func (q *ChannelTripEventQueue) Publish(evt mq.TripEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, c := range q.consumers {
		if c.ownerID != evt.OwnerID {
			continue
		}
		select {
		case c.ch <- evt:
		default:
			// subscriber is not draining; dropping beats blocking the store
		}
	}
	return nil
}

// Subscribe registers a consumer for events of one owner.
func (q *ChannelTripEventQueue) Subscribe(ownerID string) (uuid.UUID, <-chan mq.TripEvent, error) {
	id := uuid.New()
	c := &consumer{
		ownerID: ownerID,
		ch:      make(chan mq.TripEvent, 16),
	}

	q.mu.Lock()
	q.consumers[id] = c
	q.mu.Unlock()

	return id, c.ch, nil
}

// DeSubscribe removes a consumer and closes its channel.
func (q *ChannelTripEventQueue) DeSubscribe(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	c, ok := q.consumers[id]
	if !ok {
		return ErrUnknownSubscriber
	}
	close(c.ch)
	delete(q.consumers, id)
	return nil
}

// --- Error Definitions ---
type QueueError string

func (e QueueError) Error() string {
	return string(e)
}

const (
	ErrUnknownSubscriber QueueError = "unknown subscriber id"
)
