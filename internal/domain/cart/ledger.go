// Package cart implements the per-session shopping cart: a ledger of
// product quantities plus a service that resolves it against the catalog.
package cart

import "context"

// Ledger maps product IDs to requested quantities for one session.
//
// Invariant: every stored quantity is >= 1. Setting a quantity to zero or
// below removes the entry instead of storing it.
type Ledger map[string]int

// Add increases the quantity for id by qty, creating the entry if absent.
// Non-positive qty is ignored.
func (l Ledger) Add(id string, qty int) {
	if qty <= 0 {
		return
	}
	l[id] += qty
}

// Set overwrites the quantity for id. A qty <= 0 removes the entry;
// removing an absent entry is not an error.
func (l Ledger) Set(id string, qty int) {
	if qty <= 0 {
		delete(l, id)
		return
	}
	l[id] = qty
}

// Remove deletes the entry for id if present.
func (l Ledger) Remove(id string) {
	delete(l, id)
}

// Quantity returns the quantity for id, or 0 when absent.
func (l Ledger) Quantity(id string) int {
	return l[id]
}

// ItemCount returns the sum of quantities across all entries.
func (l Ledger) ItemCount() int {
	total := 0
	for _, qty := range l {
		total += qty
	}
	return total
}

// Clone returns an independent copy of the ledger.
func (l Ledger) Clone() Ledger {
	c := make(Ledger, len(l))
	for id, qty := range l {
		c[id] = qty
	}
	return c
}

// Store persists ledgers keyed by session ID. Each ledger is owned
// exclusively by its session; the store itself must be safe for concurrent
// use across sessions.
type Store interface {
	// Get returns the ledger for the session, or an empty ledger when the
	// session has no cart yet.
	Get(ctx context.Context, sessionID string) (Ledger, error)
	// Put replaces the session's ledger.
	Put(ctx context.Context, sessionID string, l Ledger) error
	// Clear empties the session's ledger. The session remains valid.
	Clear(ctx context.Context, sessionID string) error
}
