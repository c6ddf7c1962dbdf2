package cart

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/gyshop/storefront/internal/domain/product"
)

// Line is one resolved cart entry: the live product, the requested quantity,
// and the line subtotal at the catalog's current price.
type Line struct {
	Product  product.Product
	Quantity int
	Subtotal decimal.Decimal
}

// Service maintains session carts and computes live-priced totals.
//
// All pre-checkout totals use the catalog's current prices; prices are only
// frozen when the committer turns the cart into an order.
type Service struct {
	store    Store
	products product.Repository
}

// NewService creates a cart Service over the given session store and catalog.
func NewService(store Store, products product.Repository) *Service {
	return &Service{
		store:    store,
		products: products,
	}
}

// Add looks up the product and adds qty to the session's ledger entry.
// It returns the new total item count across the cart.
func (s *Service) Add(ctx context.Context, sessionID, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, &InvalidQuantityError{ProductID: productID}
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return 0, &ProductNotFoundError{ProductID: productID}
		}
		return 0, errors.Wrap(err, "get product")
	}
	if !p.Active {
		return 0, &ProductUnavailableError{ProductID: productID}
	}

	ledger, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return 0, errors.Wrap(err, "load cart")
	}

	ledger.Add(productID, qty)
	if err := s.store.Put(ctx, sessionID, ledger); err != nil {
		return 0, errors.Wrap(err, "save cart")
	}

	return ledger.ItemCount(), nil
}

// SetQuantity overwrites the ledger entry to exactly qty. A qty <= 0 removes
// the entry; removing an absent entry is not an error. It returns the new
// total item count and, when the product remains in the ledger and still
// resolves, the line subtotal at the current catalog price.
func (s *Service) SetQuantity(ctx context.Context, sessionID, productID string, qty int) (int, *decimal.Decimal, error) {
	ledger, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return 0, nil, errors.Wrap(err, "load cart")
	}

	ledger.Set(productID, qty)
	if err := s.store.Put(ctx, sessionID, ledger); err != nil {
		return 0, nil, errors.Wrap(err, "save cart")
	}

	var subtotal *decimal.Decimal
	if remaining := ledger.Quantity(productID); remaining > 0 {
		p, err := s.products.GetByID(ctx, productID)
		if err == nil {
			st := p.Price.Mul(decimal.NewFromInt(int64(remaining)))
			subtotal = &st
		} else if !errors.Is(err, product.ErrNotFound) {
			return 0, nil, errors.Wrap(err, "get product")
		}
	}

	return ledger.ItemCount(), subtotal, nil
}

// Remove deletes the ledger entry for the product. Removing an absent entry
// is a no-op. It returns the new total item count.
func (s *Service) Remove(ctx context.Context, sessionID, productID string) (int, error) {
	ledger, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return 0, errors.Wrap(err, "load cart")
	}

	ledger.Remove(productID)
	if err := s.store.Put(ctx, sessionID, ledger); err != nil {
		return 0, errors.Wrap(err, "save cart")
	}

	return ledger.ItemCount(), nil
}

// View resolves the session's ledger against the catalog and returns the
// lines plus the exact decimal total. Entries whose product no longer exists
// are silently skipped: a stale cart reference must never break cart viewing.
func (s *Service) View(ctx context.Context, sessionID string) ([]Line, decimal.Decimal, error) {
	ledger, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, decimal.Zero, errors.Wrap(err, "load cart")
	}

	lines, err := s.resolve(ctx, ledger)
	if err != nil {
		return nil, decimal.Zero, err
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal)
	}
	return lines, total, nil
}

// Resolve loads and resolves the session's ledger without computing a grand
// total. The committer uses it as the checkout snapshot source.
func (s *Service) Resolve(ctx context.Context, sessionID string) ([]Line, error) {
	ledger, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return s.resolve(ctx, ledger)
}

// Clear empties the session's ledger.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}

// resolve looks up every ledger entry in one catalog batch and builds lines
// in sorted product-ID order. Unresolvable entries are skipped.
func (s *Service) resolve(ctx context.Context, ledger Ledger) ([]Line, error) {
	if len(ledger) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(ledger))
	for id := range ledger {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	lines := make([]Line, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue // product deleted since it was added to the cart
		}
		qty := ledger[id]
		lines = append(lines, Line{
			Product:  p,
			Quantity: qty,
			Subtotal: p.Price.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return lines, nil
}
