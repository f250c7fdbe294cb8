package cart

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/internal/localstore"
)

func newTestManager(t *testing.T) (*Manager, *localstore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := localstore.New(client)
	return NewManager(store, nil, nil), store
}

func TestGetStartsEmpty(t *testing.T) {
	m, _ := newTestManager(t)

	c, err := m.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(c.Items) != 0 || c.TotalItems != 0 || c.Subtotal != 0 {
		t.Fatalf("expected empty cart, got %+v", c)
	}
}

func TestAddMergesByProductID(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Add(ctx, "user-1", Item{ProductID: 7, Name: "Hand Sanitizer 500ml", Price: 6.75, Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	c, err := m.Add(ctx, "user-1", Item{ProductID: 7, Name: "Hand Sanitizer 500ml", Price: 6.75, Quantity: 1})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(c.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(c.Items))
	}
	if c.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", c.Items[0].Quantity)
	}
}

func TestAddRejectsInvalidItem(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Add(ctx, "user-1", Item{Name: "no id", Quantity: 1}); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}
	if _, err := m.Add(ctx, "user-1", Item{ProductID: 1, Quantity: 0}); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}
}

func TestRemoveDecrementsThenDeletes(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Add(ctx, "user-1", Item{ProductID: 1, Name: "Paracetamol 500mg", Price: 5.99, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	c, err := m.Remove(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("first remove: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].Quantity != 1 {
		t.Fatalf("expected decrement to 1, got %+v", c.Items)
	}

	c, err = m.Remove(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	// Exactly quantity removals leave no entry, never a zero-quantity line.
	if len(c.Items) != 0 {
		t.Fatalf("expected line removed entirely, got %+v", c.Items)
	}
}

func TestRemoveUnknownProductIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Add(ctx, "user-1", Item{ProductID: 1, Name: "Paracetamol 500mg", Price: 5.99, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err := m.Remove(ctx, "user-1", 42)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(c.Items) != 1 {
		t.Fatalf("expected cart untouched, got %+v", c.Items)
	}
}

func TestUpdateQuantitySetsExactly(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Add(ctx, "user-1", Item{ProductID: 2, Name: "Vitamin C 1000mg", Price: 12.49, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	c, err := m.UpdateQuantity(ctx, "user-1", 2, 5)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if c.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", c.Items[0].Quantity)
	}

	// Quantities below one are ignored.
	c, err = m.UpdateQuantity(ctx, "user-1", 2, 0)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if c.Items[0].Quantity != 5 {
		t.Fatalf("expected no-op for n < 1, got %d", c.Items[0].Quantity)
	}
}

func TestDerivedTotals(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Add(ctx, "user-1", Item{ProductID: 1, Name: "Paracetamol 500mg", Price: 5.99, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err := m.Add(ctx, "user-1", Item{ProductID: 3, Name: "Digital Thermometer", Price: 15.99, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if c.TotalItems != 3 {
		t.Fatalf("expected 3 total items, got %d", c.TotalItems)
	}
	want := 2*5.99 + 15.99
	if diff := c.Subtotal - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected subtotal %.2f, got %.2f", want, c.Subtotal)
	}
}

func TestCartPersistsAcrossManagers(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Add(ctx, "user-1", Item{ProductID: 1, Name: "Paracetamol 500mg", Price: 5.99, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	// A fresh manager over the same store sees the persisted cart.
	again := NewManager(store, nil, nil)
	c, err := again.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].Quantity != 2 {
		t.Fatalf("expected restored cart, got %+v", c.Items)
	}
}

func TestClearRemovesPersistedRecord(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Add(ctx, "user-1", Item{ProductID: 1, Name: "Paracetamol 500mg", Price: 5.99, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.Clear(ctx, "user-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	c, err := m.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", c.Items)
	}

	// The record itself is gone, so a fresh manager starts empty too.
	again := NewManager(store, nil, nil)
	c, err = again.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get after clear: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("expected no persisted record, got %+v", c.Items)
	}
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Add(ctx, "user-1", Item{ProductID: 1, Name: "Paracetamol 500mg", Price: 5.99, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err := m.Get(ctx, "user-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("expected user-2 cart empty, got %+v", c.Items)
	}
}
