package gcppubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"

	"tripsync/mq/mq"
)

const ownerIDAttribute = "ownerId"

// subscriptionInfo holds details about an active Pub/Sub subscription.
type subscriptionInfo struct {
	gcpSubscription *pubsub.Subscription
	cancel          context.CancelFunc
}

// pubSubTripEventQueue implements mq.TripEventQueue on GCP Pub/Sub. One
// topic per action; owner filtering uses a subscription filter on the
// ownerId attribute so clients only pull their own events.
type pubSubTripEventQueue struct {
	action mq.Action
	client *pubsub.Client
	topic  *pubsub.Topic
	ctx    context.Context

	mu                  sync.Mutex
	activeSubscriptions map[uuid.UUID]*subscriptionInfo
}

// NewPubSubTripEventQueue creates the queue for one action, creating the
// underlying topic when it does not exist yet.
func NewPubSubTripEventQueue(ctx context.Context, client *pubsub.Client, action mq.Action) (mq.TripEventQueue, error) {
	if client == nil {
		return nil, fmt.Errorf("GCP Pub/Sub client is nil")
	}

	topicID := fmt.Sprintf("trip-event-%s", action)
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existence of topic %s: %w", topicID, err)
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, topicID)
		if err != nil {
			return nil, fmt.Errorf("failed to create topic %s: %w", topicID, err)
		}
		log.Printf("Created Pub/Sub topic: %s", topicID)
	}

	return &pubSubTripEventQueue{
		action:              action,
		client:              client,
		topic:               topic,
		ctx:                 ctx,
		activeSubscriptions: make(map[uuid.UUID]*subscriptionInfo),
	}, nil
}

// GetAction returns the action associated with this queue.
func (q *pubSubTripEventQueue) GetAction() mq.Action {
	return q.action
}

// Publish sends a trip event with the owner as a message attribute.
func (q *pubSubTripEventQueue) Publish(evt mq.TripEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal trip event: %w", err)
	}

	result := q.topic.Publish(q.ctx, &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			ownerIDAttribute: evt.OwnerID,
		},
	})
	if _, err = result.Get(q.ctx); err != nil {
		return fmt.Errorf("failed to publish trip event to topic %s: %w", q.topic.ID(), err)
	}
	return nil
}

// Subscribe creates a filtered GCP subscription and starts a receiver.
func (q *pubSubTripEventQueue) Subscribe(ownerID string) (uuid.UUID, <-chan mq.TripEvent, error) {
	subscriptionID := uuid.New()
	gcpSubName := fmt.Sprintf("sub-trip-%s-%s", q.action, subscriptionID)

	config := pubsub.SubscriptionConfig{
		Topic:            q.topic,
		Filter:           fmt.Sprintf("attributes.%s = %q", ownerIDAttribute, ownerID),
		ExpirationPolicy: 24 * time.Hour,
		AckDeadline:      10 * time.Second,
	}

	gcpSub, err := q.client.CreateSubscription(q.ctx, gcpSubName, config)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to create GCP subscription %s: %w", gcpSubName, err)
	}

	msgChan := make(chan mq.TripEvent, 5)
	receiveCtx, cancel := context.WithCancel(q.ctx)

	q.mu.Lock()
	q.activeSubscriptions[subscriptionID] = &subscriptionInfo{
		gcpSubscription: gcpSub,
		cancel:          cancel,
	}
	q.mu.Unlock()

	go func() {
		defer func() {
			q.mu.Lock()
			delete(q.activeSubscriptions, subscriptionID)
			q.mu.Unlock()

			// Delete the subscription from GCP to prevent resource leaks.
			if deleteErr := gcpSub.Delete(context.Background()); deleteErr != nil {
				log.Printf("Error deleting GCP subscription %s: %v", gcpSub.ID(), deleteErr)
			}
			close(msgChan)
		}()

		err := gcpSub.Receive(receiveCtx, func(_ context.Context, pubsubMsg *pubsub.Message) {
			pubsubMsg.Ack()

			var evt mq.TripEvent
			if err := json.Unmarshal(pubsubMsg.Data, &evt); err != nil {
				log.Printf("Error unmarshaling trip event for %s: %v", subscriptionID, err)
				return
			}

			select {
			case msgChan <- evt:
			case <-time.After(2 * time.Second):
				log.Printf("Timeout sending trip event to msgChan for %s.", subscriptionID)
			case <-receiveCtx.Done():
			}
		})
		if err != nil && err != context.Canceled {
			log.Printf("Error in Receive loop for subscription %s: %v", subscriptionID, err)
		}
	}()

	return subscriptionID, msgChan, nil
}

// DeSubscribe stops the receiver and deletes the GCP subscription.
func (q *pubSubTripEventQueue) DeSubscribe(id uuid.UUID) error {
	q.mu.Lock()
	info, ok := q.activeSubscriptions[id]
	if ok {
		// Removal from the map happens in the receiver's defer block.
		info.cancel()
	}
	q.mu.Unlock()

	if !ok {
		return fmt.Errorf("subscription ID %s not found", id)
	}
	return nil
}

// PubSubTripEventBus implements mq.TripEventBus on GCP Pub/Sub.
type PubSubTripEventBus struct {
	queues [mq.ActionCnt]mq.TripEventQueue
}

// NewPubSubTripEventBus creates one topic-backed queue per trip action.
func NewPubSubTripEventBus(ctx context.Context, client *pubsub.Client) (mq.TripEventBus, error) {
	bus := PubSubTripEventBus{}
	for action := mq.Action(0); action < mq.ActionCnt; action++ {
		q, err := NewPubSubTripEventQueue(ctx, client, action)
		if err != nil {
			return nil, err
		}
		bus.queues[action] = q
	}
	return &bus, nil
}

// GetTripEventQueue returns the queue for one action, nil for out-of-range.
func (b *PubSubTripEventBus) GetTripEventQueue(action mq.Action) mq.TripEventQueue {
	if action < 0 || action >= mq.ActionCnt {
		return nil
	}
	return b.queues[action]
}
