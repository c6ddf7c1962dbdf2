package order

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyPaid is returned when confirming payment on a paid order.
	ErrAlreadyPaid = errors.New("order already paid")
	// ErrConflict is returned when the checkout transaction kept colliding
	// with concurrent checkouts and the retry budget ran out.
	ErrConflict = errors.New("checkout conflict")
	// ErrTxConflict marks a retryable transaction failure (serialization
	// failure or deadlock). The committer restarts the whole checkout on it.
	ErrTxConflict = errors.New("transaction conflict")
)

// Shortage describes one cart line that cannot be satisfied by current stock.
type Shortage struct {
	ProductID string
	Requested int
	Available int
}

// InsufficientStockError reports every offending line of a failed checkout,
// not just the first one found.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s (requested %d, available %d)", s.ProductID, s.Requested, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}
