package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"tripsync/mq/mq"
)

const (
	// All trip events go through this exchange.
	exchangeName = "trip_events_exchange"
)

func routingKeyFor(action mq.Action) string {
	return fmt.Sprintf("trip.%s", action)
}

// rabbitTripEventQueue implements mq.TripEventQueue for RabbitMQ. One queue
// per action, bound to the shared topic exchange; owner filtering happens in
// the consumer because AMQP routing keys carry the action only.
type rabbitTripEventQueue struct {
	action     mq.Action
	conn       *amqp.Connection
	channel    *amqp.Channel
	queueName  string
	routingKey string

	mu        sync.RWMutex
	consumers map[uuid.UUID]context.CancelFunc
}

// NewRabbitTripEventQueue creates a RabbitMQ-backed queue for one action.
func NewRabbitTripEventQueue(action mq.Action, conn *amqp.Connection) (mq.TripEventQueue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	queueName := fmt.Sprintf("trip_event_%s_queue", action)
	routingKey := routingKeyFor(action)

	if err := DeclareQueueAndExchange(ch, queueName, exchangeName, routingKey); err != nil {
		ch.Close()
		return nil, err
	}

	return &rabbitTripEventQueue{
		action:     action,
		conn:       conn,
		channel:    ch,
		queueName:  queueName,
		routingKey: routingKey,
		consumers:  make(map[uuid.UUID]context.CancelFunc),
	}, nil
}

// GetAction returns the action associated with this queue.
func (q *rabbitTripEventQueue) GetAction() mq.Action {
	return q.action
}

// Publish sends a TripEvent to the exchange.
func (q *rabbitTripEventQueue) Publish(evt mq.TripEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal trip event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = q.channel.PublishWithContext(ctx,
		exchangeName,
		q.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish trip event: %w", err)
	}
	return nil
}

// Subscribe registers a consumer that receives the owner's events.
func (q *rabbitTripEventQueue) Subscribe(ownerID string) (uuid.UUID, <-chan mq.TripEvent, error) {
	msgs, err := q.channel.Consume(
		q.queueName,
		"",    // consumer tag
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	subscriberID := uuid.New()
	outputChan := make(chan mq.TripEvent, 16)
	ctx, cancel := context.WithCancel(context.Background())

	q.mu.Lock()
	q.consumers[subscriberID] = cancel
	q.mu.Unlock()

	go func() {
		defer func() {
			q.mu.Lock()
			delete(q.consumers, subscriberID)
			q.mu.Unlock()
			close(outputChan)
		}()

		for {
			select {
			case d, ok := <-msgs:
				if !ok {
					return
				}
				var evt mq.TripEvent
				if err := json.Unmarshal(d.Body, &evt); err != nil {
					log.Printf("failed to unmarshal trip event: %v", err)
					continue
				}
				if evt.OwnerID != ownerID {
					continue
				}
				select {
				case outputChan <- evt:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return subscriberID, outputChan, nil
}

// DeSubscribe stops the consumer goroutine for a subscription.
func (q *rabbitTripEventQueue) DeSubscribe(id uuid.UUID) error {
	q.mu.RLock()
	cancel, ok := q.consumers[id]
	q.mu.RUnlock()

	if !ok {
		return fmt.Errorf("subscription ID %s not found", id)
	}
	cancel()
	return nil
}

// RabbitTripEventBus implements mq.TripEventBus over RabbitMQ queues.
type RabbitTripEventBus struct {
	queues [mq.ActionCnt]mq.TripEventQueue
}

// NewRabbitTripEventBus declares one queue per action on the connection.
func NewRabbitTripEventBus(conn *amqp.Connection) (mq.TripEventBus, error) {
	bus := RabbitTripEventBus{}
	for action := mq.Action(0); action < mq.ActionCnt; action++ {
		q, err := NewRabbitTripEventQueue(action, conn)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue for action %s: %w", action, err)
		}
		bus.queues[action] = q
	}
	return &bus, nil
}

// GetTripEventQueue returns the queue for one action, nil for out-of-range.
func (b *RabbitTripEventBus) GetTripEventQueue(action mq.Action) mq.TripEventQueue {
	if action < 0 || action >= mq.ActionCnt {
		return nil
	}
	return b.queues[action]
}
