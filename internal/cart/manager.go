package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/internal/notify"
	"github.com/mediwrap/platform/pkg/logging"
)

// ErrInvalidItem is returned for add requests without a product id or a
// positive quantity.
var ErrInvalidItem = errors.New("cart item needs a product id and a positive quantity")

// Manager serializes all cart mutations per user and writes every change
// through to the persistent store before it becomes visible. A failed
// write leaves the in-memory cart exactly as it was.
type Manager struct {
	store    *localstore.Store
	notifier notify.Notifier
	logger   *logging.Logger

	mu    sync.Mutex
	carts map[string]*userCart
}

type userCart struct {
	mu     sync.Mutex
	loaded bool
	items  []Item
}

// NewManager creates a cart manager over the persistent store. notifier
// may be nil.
func NewManager(store *localstore.Store, notifier notify.Notifier, logger *logging.Logger) *Manager {
	if store == nil {
		panic("cart: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		store:    store,
		notifier: notifier,
		logger:   logger,
		carts:    make(map[string]*userCart),
	}
}

func cartCollection(userID string) string {
	return "cart:" + userID
}

func (m *Manager) cartFor(userID string) *userCart {
	m.mu.Lock()
	defer m.mu.Unlock()
	uc, ok := m.carts[userID]
	if !ok {
		uc = &userCart{}
		m.carts[userID] = uc
	}
	return uc
}

// load populates the cart from the store on first touch. An absent record
// means an empty cart, not an error.
func (uc *userCart) load(ctx context.Context, store *localstore.Store, userID string) error {
	if uc.loaded {
		return nil
	}
	payload, err := store.Load(ctx, cartCollection(userID))
	if errors.Is(err, localstore.ErrUnknownCollection) {
		uc.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("cart: load for %s: %w", userID, err)
	}
	var items []Item
	if err := json.Unmarshal(payload, &items); err != nil {
		return fmt.Errorf("cart: decode for %s: %w", userID, err)
	}
	uc.items = items
	uc.loaded = true
	return nil
}

func (m *Manager) persist(ctx context.Context, userID string, items []Item) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cart: encode for %s: %w", userID, err)
	}
	if err := m.store.Save(ctx, cartCollection(userID), payload); err != nil {
		return fmt.Errorf("cart: save for %s: %w", userID, err)
	}
	return nil
}

func (m *Manager) notifyInfo(ctx context.Context, userID, title, description string) {
	if m.notifier != nil {
		m.notifier.Publish(ctx, userID, notify.Info(title, description))
	}
}

func (m *Manager) notifyFailure(ctx context.Context, userID, title, description string) {
	if m.notifier != nil {
		m.notifier.Publish(ctx, userID, notify.Destructive(title, description))
	}
}

// Get returns the current cart snapshot.
func (m *Manager) Get(ctx context.Context, userID string) (Cart, error) {
	uc := m.cartFor(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if err := uc.load(ctx, m.store, userID); err != nil {
		return Cart{}, err
	}
	return snapshot(uc.items), nil
}

// Add merges the item into the cart: an existing line with the same
// product id has its quantity increased, otherwise the line is appended.
func (m *Manager) Add(ctx context.Context, userID string, item Item) (Cart, error) {
	if item.ProductID == 0 || item.Quantity < 1 {
		return Cart{}, ErrInvalidItem
	}
	uc := m.cartFor(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if err := uc.load(ctx, m.store, userID); err != nil {
		return Cart{}, err
	}

	next := make([]Item, len(uc.items))
	copy(next, uc.items)
	merged := false
	resulting := item.Quantity
	for i := range next {
		if next[i].ProductID == item.ProductID {
			next[i].Quantity += item.Quantity
			resulting = next[i].Quantity
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, item)
	}

	if err := m.persist(ctx, userID, next); err != nil {
		m.logger.Error("cart: add failed", "user_id", userID, "product_id", item.ProductID, "error", err)
		m.notifyFailure(ctx, userID, "Cart not updated", fmt.Sprintf("%s could not be added to your cart", item.Name))
		return Cart{}, err
	}
	uc.items = next

	m.notifyInfo(ctx, userID, "Added to cart", fmt.Sprintf("%s (%d in cart)", item.Name, resulting))
	return snapshot(uc.items), nil
}

// Remove decrements the line for the product by one unit; the last unit
// removes the line entirely. There is no delete-regardless-of-quantity
// primitive here; Clear is the only wholesale removal.
func (m *Manager) Remove(ctx context.Context, userID string, productID int64) (Cart, error) {
	uc := m.cartFor(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if err := uc.load(ctx, m.store, userID); err != nil {
		return Cart{}, err
	}

	next := make([]Item, 0, len(uc.items))
	var touched *Item
	for _, line := range uc.items {
		if line.ProductID == productID {
			if line.Quantity > 1 {
				line.Quantity--
				copied := line
				touched = &copied
				next = append(next, line)
			} else {
				copied := line
				copied.Quantity = 0
				touched = &copied
			}
			continue
		}
		next = append(next, line)
	}
	if touched == nil {
		return snapshot(uc.items), nil
	}

	if err := m.persist(ctx, userID, next); err != nil {
		m.logger.Error("cart: remove failed", "user_id", userID, "product_id", productID, "error", err)
		m.notifyFailure(ctx, userID, "Cart not updated", fmt.Sprintf("%s could not be removed from your cart", touched.Name))
		return Cart{}, err
	}
	uc.items = next

	if touched.Quantity == 0 {
		m.notifyInfo(ctx, userID, "Removed from cart", touched.Name)
	} else {
		m.notifyInfo(ctx, userID, "Removed from cart", fmt.Sprintf("%s (%d left in cart)", touched.Name, touched.Quantity))
	}
	return snapshot(uc.items), nil
}

// UpdateQuantity sets the line's quantity exactly. Quantities below one
// are ignored, and so are product ids not present in the cart.
func (m *Manager) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int) (Cart, error) {
	uc := m.cartFor(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if err := uc.load(ctx, m.store, userID); err != nil {
		return Cart{}, err
	}
	if quantity < 1 {
		return snapshot(uc.items), nil
	}

	next := make([]Item, len(uc.items))
	copy(next, uc.items)
	changed := false
	for i := range next {
		if next[i].ProductID == productID {
			next[i].Quantity = quantity
			changed = true
			break
		}
	}
	if !changed {
		return snapshot(uc.items), nil
	}

	if err := m.persist(ctx, userID, next); err != nil {
		m.logger.Error("cart: update quantity failed", "user_id", userID, "product_id", productID, "error", err)
		m.notifyFailure(ctx, userID, "Cart not updated", "The quantity could not be changed")
		return Cart{}, err
	}
	uc.items = next
	return snapshot(uc.items), nil
}

// Clear empties the cart and removes the persisted record.
func (m *Manager) Clear(ctx context.Context, userID string) error {
	uc := m.cartFor(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := m.store.Delete(ctx, cartCollection(userID)); err != nil {
		m.logger.Error("cart: clear failed", "user_id", userID, "error", err)
		m.notifyFailure(ctx, userID, "Cart not cleared", "Your cart could not be cleared")
		return err
	}
	uc.items = nil
	uc.loaded = true

	m.notifyInfo(ctx, userID, "Cart cleared", "All items were removed from your cart")
	return nil
}
