package mq

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// Subscriber is anything that can be subscribed to by owner and later
// released. M is the message type carried by the subscription.
type Subscriber[M any] interface {
	Subscribe(ownerID string) (uuid.UUID, <-chan M, error)
	DeSubscribe(id uuid.UUID) error
}

// SubscribeProcessor pumps messages from a subscription into outputStream,
// applying transformFunc to each. It returns immediately; the pump runs until
// ctx is cancelled or the subscription channel closes, then de-subscribes and
// closes outputStream.
func SubscribeProcessor[S Subscriber[M], M any, O any](
	ctx context.Context,
	ownerID string,
	service S,
	transformFunc func(msg M) (O, bool, error),
	outputStream chan<- O,
) {
	go func() {
		uid, inputCh, err := service.Subscribe(ownerID)
		if err != nil {
			close(outputStream)
			return
		}

		defer func() {
			if err := service.DeSubscribe(uid); err != nil {
				log.Printf("error de-subscribing %s: %v", uid, err)
			}
			close(outputStream)
		}()

		for {
			select {
			case msg, ok := <-inputCh:
				if !ok {
					return
				}

				output, skip, err := transformFunc(msg)
				if err != nil || skip {
					continue
				}

				select {
				case outputStream <- output:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()
}
