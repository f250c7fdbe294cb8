package cart

import (
	"context"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/internal/notify"
)

type captureNotifier struct {
	identities []string
	published  []notify.Notification
}

func (c *captureNotifier) Publish(ctx context.Context, identityID string, n notify.Notification) {
	c.identities = append(c.identities, identityID)
	c.published = append(c.published, n)
}

func TestAddEmitsNotificationNamingProductAndQuantity(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	capture := &captureNotifier{}
	m := NewManager(localstore.New(client), capture, nil)
	ctx := context.Background()

	if _, err := m.Add(ctx, "user-1", Item{ProductID: 7, Name: "Hand Sanitizer 500ml", Price: 6.75, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := m.Add(ctx, "user-1", Item{ProductID: 7, Name: "Hand Sanitizer 500ml", Price: 6.75, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if len(capture.published) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(capture.published))
	}
	last := capture.published[1]
	if last.Severity != notify.SeverityInfo {
		t.Fatalf("expected info severity, got %s", last.Severity)
	}
	if !strings.Contains(last.Description, "Hand Sanitizer 500ml") || !strings.Contains(last.Description, "3") {
		t.Fatalf("expected product name and resulting quantity in %q", last.Description)
	}
	if capture.identities[1] != "user-1" {
		t.Fatalf("expected notification for user-1, got %s", capture.identities[1])
	}
}
