package products

import "strings"

// Product is a pharmacy catalog entry.
type Product struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	Description          string  `json:"description,omitempty"`
	Category             string  `json:"category"`
	Price                float64 `json:"price"`
	ImageRef             string  `json:"image_ref,omitempty"`
	RequiresPrescription bool    `json:"requires_prescription"`
	Stock                int     `json:"stock"`
	Rating               float64 `json:"rating"`
	ReviewCount          int     `json:"review_count"`
}

// InStock reports whether the product can currently be added to a cart.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// AddProductRequest is the payload for adding a catalog entry.
type AddProductRequest struct {
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	Category             string  `json:"category"`
	Price                float64 `json:"price"`
	ImageRef             string  `json:"image_ref"`
	RequiresPrescription bool    `json:"requires_prescription"`
	Stock                int     `json:"stock"`
}

// Validate checks required fields before any store call is attempted.
func (r *AddProductRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Price < 0 {
		return ErrInvalidPrice
	}
	if r.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Category string
	Term     string
}

func (p *Product) matches(f Filter) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Term != "" {
		term := strings.ToLower(f.Term)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	return true
}
