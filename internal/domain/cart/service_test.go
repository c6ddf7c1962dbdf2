package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyshop/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]*product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context, _ string) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// --- Helpers ---

func newTestProduct(id, name, price string) product.Product {
	return product.Product{
		ID:     id,
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  10,
		Active: true,
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

func newTestService(products ...product.Product) *Service {
	return NewService(NewMemoryStore(), newProductRepo(products...))
}

// --- Tests ---

func TestAdd_ProductNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.Add(context.Background(), "s1", "missing", 1)

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
}

func TestAdd_InvalidQuantity(t *testing.T) {
	svc := newTestService(newTestProduct("p1", "Widget", "10.00"))

	_, err := svc.Add(context.Background(), "s1", "p1", 0)

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestAdd_InactiveProduct(t *testing.T) {
	p := newTestProduct("p1", "Widget", "10.00")
	p.Active = false
	svc := newTestService(p)

	_, err := svc.Add(context.Background(), "s1", "p1", 1)

	var puErr *ProductUnavailableError
	require.ErrorAs(t, err, &puErr)
	assert.Equal(t, "p1", puErr.ProductID)
}

func TestAdd_AccumulatesAndReturnsCount(t *testing.T) {
	svc := newTestService(
		newTestProduct("p1", "Widget", "10.00"),
		newTestProduct("p2", "Gadget", "20.00"),
	)
	ctx := context.Background()

	count, err := svc.Add(ctx, "s1", "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = svc.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = svc.Add(ctx, "s1", "p2", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestAdd_SessionsAreIsolated(t *testing.T) {
	svc := newTestService(newTestProduct("p1", "Widget", "10.00"))
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 2)
	require.NoError(t, err)

	count, err := svc.Add(ctx, "s2", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSetQuantity_ReturnsLiveSubtotal(t *testing.T) {
	svc := newTestService(newTestProduct("p1", "Widget", "10.00"))
	ctx := context.Background()

	count, subtotal, err := svc.SetQuantity(ctx, "s1", "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.NotNil(t, subtotal)
	assert.True(t, decimal.RequireFromString("30.00").Equal(*subtotal))
}

func TestSetQuantity_ZeroRemovesEntry(t *testing.T) {
	svc := newTestService(newTestProduct("p1", "Widget", "10.00"))
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 2)
	require.NoError(t, err)

	count, subtotal, err := svc.SetQuantity(ctx, "s1", "p1", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Nil(t, subtotal)
}

func TestSetQuantity_AbsentEntryIsNoop(t *testing.T) {
	svc := newTestService(newTestProduct("p1", "Widget", "10.00"))

	count, subtotal, err := svc.SetQuantity(context.Background(), "s1", "missing", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Nil(t, subtotal)
}

func TestSetQuantity_DeletedProductKeepsEntry(t *testing.T) {
	// Setting a quantity for a product that vanished from the catalog still
	// updates the ledger; the subtotal is simply unavailable.
	svc := newTestService()

	count, subtotal, err := svc.SetQuantity(context.Background(), "s1", "ghost", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Nil(t, subtotal)
}

func TestRemove_ReturnsRemainingCount(t *testing.T) {
	svc := newTestService(
		newTestProduct("p1", "Widget", "10.00"),
		newTestProduct("p2", "Gadget", "20.00"),
	)
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "s1", "p2", 1)
	require.NoError(t, err)

	count, err := svc.Remove(ctx, "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Removing an absent entry is a no-op.
	count, err = svc.Remove(ctx, "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestView_ExactDecimalTotal(t *testing.T) {
	svc := newTestService(
		newTestProduct("p1", "Widget", "10.00"),
		newTestProduct("p2", "Gadget", "12.50"),
	)
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "s1", "p2", 2)
	require.NoError(t, err)

	lines, total, err := svc.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, decimal.RequireFromString("45.00").Equal(total), "got total %s", total)
}

func TestView_EmptyCart(t *testing.T) {
	svc := newTestService()

	lines, total, err := svc.View(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.True(t, decimal.Zero.Equal(total))
}

func TestView_SkipsDeletedProducts(t *testing.T) {
	repo := newProductRepo(newTestProduct("p1", "Widget", "10.00"))
	svc := NewService(NewMemoryStore(), repo)
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)

	// Simulate the product being deleted after it was added.
	delete(repo.byID, "p1")

	lines, total, err := svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.True(t, decimal.Zero.Equal(total))
}

func TestResolve_SortedByProductID(t *testing.T) {
	svc := newTestService(
		newTestProduct("b", "Beta", "1.00"),
		newTestProduct("a", "Alpha", "2.00"),
		newTestProduct("c", "Gamma", "3.00"),
	)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		_, err := svc.Add(ctx, "s1", id, 1)
		require.NoError(t, err)
	}

	lines, err := svc.Resolve(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "a", lines[0].Product.ID)
	assert.Equal(t, "b", lines[1].Product.ID)
	assert.Equal(t, "c", lines[2].Product.ID)
}

func TestClear_EmptiesSession(t *testing.T) {
	svc := newTestService(newTestProduct("p1", "Widget", "10.00"))
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 3)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "s1"))

	lines, _, err := svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
