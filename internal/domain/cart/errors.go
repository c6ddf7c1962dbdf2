package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrEmptyCart is returned when an operation requires a non-empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// ProductNotFoundError indicates the requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// ProductUnavailableError indicates the product exists but is not for sale.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is unavailable", e.ProductID)
}

// InvalidQuantityError indicates a non-positive quantity was given where a
// positive one is required.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}
