// Package cart owns the per-user shopping cart aggregate. Carts live in
// the local persistent store under one record per user; every mutation is
// written through immediately and totals are derived on read, never
// stored.
package cart

// Item is one cart line. It references a product by id without enforcing
// that the product still exists in the catalog.
type Item struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageRef  string  `json:"image_ref,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Cart is a read snapshot: the lines plus totals recomputed from them.
type Cart struct {
	Items      []Item  `json:"items"`
	TotalItems int     `json:"total_items"`
	Subtotal   float64 `json:"subtotal"`
}

func snapshot(items []Item) Cart {
	c := Cart{Items: make([]Item, len(items))}
	copy(c.Items, items)
	for _, item := range items {
		c.TotalItems += item.Quantity
		c.Subtotal += item.Price * float64(item.Quantity)
	}
	return c
}
