package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gyshop/storefront/internal/clock"
	"github.com/gyshop/storefront/internal/domain/cart"
)

// maxCommitRetries bounds how many times a checkout transaction is restarted
// after a retryable conflict before surfacing ErrConflict.
const maxCommitRetries = 3

// Committer transactionally converts a session cart into a durable order
// while enforcing stock constraints.
type Committer struct {
	carts  *cart.Service
	orders Repository
	stock  Inventory
	clock  clock.Clock
}

// NewCommitter creates a Committer with the required collaborators.
func NewCommitter(carts *cart.Service, orders Repository, stock Inventory, clk clock.Clock) *Committer {
	return &Committer{
		carts:  carts,
		orders: orders,
		stock:  stock,
		clock:  clk,
	}
}

// CheckoutCash commits the session's cart as a pending order awaiting manual
// payment confirmation.
func (c *Committer) CheckoutCash(ctx context.Context, sessionID string, customer Customer) (*Order, error) {
	return c.checkout(ctx, sessionID, customer, StatusPending, "")
}

// CheckoutOnline commits the session's cart as a paid order. paymentRef is
// the provider's confirmation reference and must be non-empty.
func (c *Committer) CheckoutOnline(ctx context.Context, sessionID string, customer Customer, paymentRef string) (*Order, error) {
	if paymentRef == "" {
		return nil, errors.New("payment confirmation required")
	}
	return c.checkout(ctx, sessionID, customer, StatusPaid, paymentRef)
}

// checkout runs the commit algorithm:
//
//  1. Resolve the cart snapshot; an empty (or fully unresolvable) cart is
//     rejected before any side effect.
//  2. In one transaction, re-read authoritative stock per line under row
//     locks, in sorted product-ID order so concurrent checkouts cannot
//     deadlock on lock ordering.
//  3. Collect every short line; any shortage aborts the whole transaction.
//  4. Decrement each line with a guarded read-modify-write.
//  5. Persist the order with the frozen line snapshot.
//  6. Only after the transaction commits, clear the cart.
//
// Retryable transaction conflicts restart the whole procedure up to
// maxCommitRetries times.
func (c *Committer) checkout(ctx context.Context, sessionID string, customer Customer, status Status, paymentRef string) (*Order, error) {
	lines, err := c.carts.Resolve(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve cart")
	}
	if len(lines) == 0 {
		return nil, cart.ErrEmptyCart
	}

	o := buildOrder(lines, customer, status, paymentRef, c.clock.Now())

	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		err = c.orders.WithTx(ctx, func(txCtx context.Context) error {
			return c.commitLines(txCtx, o)
		})
		if err == nil {
			// The order and all decrements are durable; clearing the cart
			// must not happen before this point.
			if err := c.carts.Clear(ctx, sessionID); err != nil {
				return nil, errors.Wrap(err, "clear cart")
			}
			return o, nil
		}
		if !errors.Is(err, ErrTxConflict) {
			return nil, err
		}
	}
	return nil, ErrConflict
}

// commitLines validates and applies all stock decrements, then persists the
// order. Runs inside a single transaction.
func (c *Committer) commitLines(ctx context.Context, o *Order) error {
	var shortages []Shortage
	for _, line := range o.Lines {
		available, err := c.stock.StockForUpdate(ctx, line.ProductID)
		if err != nil {
			return errors.Wrapf(err, "read stock for %s", line.ProductID)
		}
		if available < line.Quantity {
			shortages = append(shortages, Shortage{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: available,
			})
		}
	}
	if len(shortages) > 0 {
		return &InsufficientStockError{Shortages: shortages}
	}

	for _, line := range o.Lines {
		if err := c.stock.Decrement(ctx, line.ProductID, line.Quantity); err != nil {
			return errors.Wrapf(err, "decrement stock for %s", line.ProductID)
		}
	}

	if err := c.orders.Create(ctx, o); err != nil {
		return errors.Wrap(err, "create order")
	}
	return nil
}

// buildOrder freezes the cart lines into an order snapshot. Prices and names
// are captured here and never recomputed from the live catalog.
func buildOrder(lines []cart.Line, customer Customer, status Status, paymentRef string, now time.Time) *Order {
	orderLines := make([]Line, len(lines))
	subtotal := decimal.Zero
	for i, line := range lines {
		orderLines[i] = Line{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			UnitPrice: line.Product.Price,
			Quantity:  line.Quantity,
		}
		subtotal = subtotal.Add(orderLines[i].Total())
	}

	return &Order{
		ID:         uuid.New().String(),
		Lines:      orderLines,
		Subtotal:   subtotal,
		Status:     status,
		Customer:   customer,
		PaymentRef: paymentRef,
		CreatedAt:  now,
	}
}
