package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyshop/storefront/internal/domain/order"
)

const (
	orderColumns = `id, lines, subtotal, status, customer_name, customer_email,
		customer_phone, customer_address, payment_ref, created_at`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	markPaidSQL = `UPDATE orders SET status = 'paid' WHERE id = $1 AND status = 'pending'`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// WithTx runs fn inside one transaction. Serialization failures and
// deadlocks are reported as order.ErrTxConflict so the committer can retry.
func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := withTx(ctx, r.pool, fn)
	if err != nil && isRetryableTxError(err) {
		return errors.Wrap(order.ErrTxConflict, err.Error())
	}
	return err
}

// Create persists a new order. The frozen line snapshot is serialized to
// JSON for storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}

	_, err = querier(ctx, r.pool).Exec(ctx, createOrderSQL,
		o.ID, linesJSON, o.Subtotal, string(o.Status),
		o.Customer.Name, o.Customer.Email, o.Customer.Phone, o.Customer.Address,
		o.PaymentRef, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// MarkPaid transitions an order from pending to paid. The transition is
// one-way; confirming an already-paid order is an error.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, markPaidSQL, id)
	if err != nil {
		return fmt.Errorf("marking order %q paid: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return order.ErrAlreadyPaid
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		linesJSON []byte
		status    string
	)
	err := row.Scan(
		&o.ID, &linesJSON, &o.Subtotal, &status,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.Customer.Address,
		&o.PaymentRef, &o.CreatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	o.Status = order.Status(status)
	return o, nil
}
