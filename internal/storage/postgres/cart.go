package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyshop/storefront/internal/domain/cart"
)

const (
	getCartSQL = `SELECT ledger FROM carts WHERE session_id = $1`

	putCartSQL = `INSERT INTO carts (session_id, ledger, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET ledger = EXCLUDED.ledger, updated_at = now()`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore persists session ledgers in the carts table, one JSONB object of
// product ID -> quantity per session.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Get returns the session's ledger, or an empty ledger when the session has
// no cart row yet.
func (s *CartStore) Get(ctx context.Context, sessionID string) (cart.Ledger, error) {
	var raw []byte
	err := querier(ctx, s.pool).QueryRow(ctx, getCartSQL, sessionID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return make(cart.Ledger), nil
		}
		return nil, fmt.Errorf("loading cart %q: %w", sessionID, err)
	}

	ledger, err := decodeLedger(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding cart %q: %w", sessionID, err)
	}
	return ledger, nil
}

// Put upserts the session's ledger.
func (s *CartStore) Put(ctx context.Context, sessionID string, l cart.Ledger) error {
	_, err := querier(ctx, s.pool).Exec(ctx, putCartSQL, sessionID, encodeLedger(l))
	if err != nil {
		return fmt.Errorf("saving cart %q: %w", sessionID, err)
	}
	return nil
}

// Clear empties the session's ledger while keeping the row, so the session
// stays valid after checkout.
func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	return s.Put(ctx, sessionID, make(cart.Ledger))
}

func encodeLedger(l cart.Ledger) []byte {
	var e jx.Encoder
	e.ObjStart()
	for id, qty := range l {
		e.FieldStart(id)
		e.Int(qty)
	}
	e.ObjEnd()
	return e.Bytes()
}

func decodeLedger(raw []byte) (cart.Ledger, error) {
	ledger := make(cart.Ledger)
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		qty, err := d.Int()
		if err != nil {
			return err
		}
		// Stored quantities are always positive; drop anything else.
		if qty > 0 {
			ledger[key] = qty
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return ledger, nil
}
