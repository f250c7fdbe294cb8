package events

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/pkg/logging"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBus(client, logging.Default())
}

func waitForEvent(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case evt, ok := <-ch:
		if !ok {
			t.Fatal("subscription channel closed before delivery")
		}
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return ChangeEvent{}
}

func TestBusDeliversMatchingEvents(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	sub := bus.Subscribe(ctx, CollectionAppointments, map[string]string{"patient_id": "7"})
	defer sub.Close()

	// Subscription setup races the first publish; give the reader a moment.
	time.Sleep(50 * time.Millisecond)

	if err := bus.PublishChange(ctx, ChangeEvent{
		Collection: CollectionAppointments,
		Keys:       map[string]string{"patient_id": "7"},
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	evt := waitForEvent(t, sub.C)
	if evt.Collection != CollectionAppointments {
		t.Errorf("unexpected collection %q", evt.Collection)
	}
	if evt.EventID == "" || evt.OccurredAt.IsZero() {
		t.Error("expected event id and timestamp to be filled in")
	}
}

func TestBusFiltersScopedEvents(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	sub := bus.Subscribe(ctx, CollectionAppointments, map[string]string{"patient_id": "7"})
	defer sub.Close()
	time.Sleep(50 * time.Millisecond)

	other := ChangeEvent{Collection: CollectionAppointments, Keys: map[string]string{"patient_id": "8"}}
	if err := bus.PublishChange(ctx, other); err != nil {
		t.Fatalf("publish other: %v", err)
	}
	broadcast := ChangeEvent{Collection: CollectionAppointments}
	if err := bus.PublishChange(ctx, broadcast); err != nil {
		t.Fatalf("publish broadcast: %v", err)
	}

	// The filtered event must be dropped; the broadcast must arrive.
	evt := waitForEvent(t, sub.C)
	if len(evt.Keys) != 0 {
		t.Errorf("expected the broadcast event, got keys %v", evt.Keys)
	}
}

func TestBusPublishChangeRequiresCollection(t *testing.T) {
	bus := newTestBus(t)
	if err := bus.PublishChange(context.Background(), ChangeEvent{}); err == nil {
		t.Fatal("expected error for event without collection")
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	bus := newTestBus(t)
	sub := bus.Subscribe(context.Background(), CollectionDoctors, nil)
	sub.Close()
	sub.Close()

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Fatal("expected closed channel after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel not closed")
	}
}

func TestNotificationStreamRoundTrip(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	ch, release := bus.SubscribeNotifications(ctx, "identity-1")
	defer release()
	time.Sleep(50 * time.Millisecond)

	if err := bus.PublishNotification(ctx, "identity-1", []byte(`{"title":"Cart updated"}`)); err != nil {
		t.Fatalf("publish notification: %v", err)
	}

	select {
	case payload := <-ch:
		if string(payload) != `{"title":"Cart updated"}` {
			t.Errorf("unexpected payload %s", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}
