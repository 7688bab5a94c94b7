package mq

import "github.com/google/uuid"

// TripEventQueue is one action-scoped stream of trip events. Subscriptions
// are filtered by owner so a client only sees its own trips.
type TripEventQueue interface {
	GetAction() Action
	Publish(evt TripEvent) error
	Subscribe(ownerID string) (uuid.UUID, <-chan TripEvent, error)
	DeSubscribe(id uuid.UUID) error
}

// TripEventBus hands out the per-action queues of one backend.
type TripEventBus interface {
	GetTripEventQueue(action Action) TripEventQueue
}
