package products

import "errors"

var (
	// ErrProductNotFound is returned when a product id does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidName is returned when the name is missing.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidPrice is returned for negative prices.
	ErrInvalidPrice = errors.New("price must not be negative")

	// ErrInvalidStock is returned for negative stock levels.
	ErrInvalidStock = errors.New("stock must not be negative")
)
