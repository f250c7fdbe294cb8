package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/pkg/logging"
)

// Publisher emits change events for a collection.
type Publisher interface {
	PublishChange(ctx context.Context, evt ChangeEvent) error
}

// Bus is a Redis pub/sub fan-out for change events and per-identity
// notification streams. Events carry no payload diff; subscribers
// invalidate and refetch.
type Bus struct {
	redis  *redis.Client
	logger *logging.Logger
}

// NewBus creates a bus on the given Redis client.
func NewBus(client *redis.Client, logger *logging.Logger) *Bus {
	if client == nil {
		panic("events: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Bus{redis: client, logger: logger}
}

func changeChannel(collection string) string {
	return "mediwrap:changes:" + collection
}

func notifyChannel(identityID string) string {
	return "mediwrap:notify:" + identityID
}

// PublishChange broadcasts a change event on the collection's channel.
// EventID and OccurredAt are filled in when absent.
func (b *Bus) PublishChange(ctx context.Context, evt ChangeEvent) error {
	if evt.Collection == "" {
		return fmt.Errorf("events: change event missing collection")
	}
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal change event: %w", err)
	}
	if err := b.redis.Publish(ctx, changeChannel(evt.Collection), data).Err(); err != nil {
		return fmt.Errorf("events: publish change: %w", err)
	}
	return nil
}

// PublishNotification pushes a serialized notification onto the identity's
// private stream.
func (b *Bus) PublishNotification(ctx context.Context, identityID string, payload []byte) error {
	if identityID == "" {
		return fmt.Errorf("events: notification missing identity")
	}
	if err := b.redis.Publish(ctx, notifyChannel(identityID), payload).Err(); err != nil {
		return fmt.Errorf("events: publish notification: %w", err)
	}
	return nil
}

// Subscription is a live change-feed subscription. Close releases the
// underlying pub/sub connection; it is safe to call more than once.
type Subscription struct {
	C <-chan ChangeEvent

	closeOnce sync.Once
	cancel    context.CancelFunc
	pubsub    *redis.PubSub
}

// Close tears the subscription down deterministically.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.pubsub.Close()
	})
}

// Subscribe opens a scoped change-feed subscription on a collection.
// Events not matching the filter are dropped before delivery. The
// subscription also closes when ctx is canceled.
func (b *Bus) Subscribe(ctx context.Context, collection string, filter map[string]string) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := b.redis.Subscribe(subCtx, changeChannel(collection))

	out := make(chan ChangeEvent, 16)
	sub := &Subscription{C: out, cancel: cancel, pubsub: pubsub}

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.logger.Warn("events: dropping malformed change event", "channel", msg.Channel, "error", err)
					continue
				}
				if !evt.Matches(filter) {
					continue
				}
				select {
				case out <- evt:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return sub
}

// SubscribeNotifications opens the identity's private notification stream.
// Payloads are delivered verbatim.
func (b *Bus) SubscribeNotifications(ctx context.Context, identityID string) (<-chan []byte, func()) {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := b.redis.Subscribe(subCtx, notifyChannel(identityID))

	out := make(chan []byte, 16)
	var once sync.Once
	release := func() {
		once.Do(func() {
			cancel()
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return out, release
}
