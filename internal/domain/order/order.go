// Package order holds the order entity and the checkout committer that
// turns a session cart into stock decrements plus a durable order record.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. The only transition is
// pending -> paid, driven by an external payment confirmation.
type Status string

const (
	// StatusPending marks orders awaiting manual payment confirmation.
	StatusPending Status = "pending"
	// StatusPaid marks orders whose payment has been confirmed.
	StatusPaid Status = "paid"
)

// Line is one frozen order line. Name and UnitPrice are copied from the
// catalog at commit time and never recomputed afterwards.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Total returns UnitPrice * Quantity for the line.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Customer holds the contact fields captured at checkout.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Order is an immutable record of one successful checkout. Only Status may
// change after creation.
type Order struct {
	ID         string
	Lines      []Line
	Subtotal   decimal.Decimal
	Status     Status
	Customer   Customer
	PaymentRef string
	CreatedAt  time.Time
}

// Repository defines persistence operations for orders.
//
// WithTx runs fn inside a single database transaction; repository and
// inventory calls made with the inner context join that transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	MarkPaid(ctx context.Context, id string) error
}

// Inventory defines the authoritative stock operations the committer needs.
// Both calls participate in the surrounding WithTx transaction.
type Inventory interface {
	// StockForUpdate reads the current stock for the product, locking the
	// row for the remainder of the transaction.
	StockForUpdate(ctx context.Context, productID string) (int, error)
	// Decrement reduces stock by qty. The write re-checks availability so
	// stock can never go below zero even under a lost race.
	Decrement(ctx context.Context, productID string, qty int) error
}
