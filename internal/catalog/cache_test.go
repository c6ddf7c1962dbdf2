package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyshop/storefront/internal/domain/product"
)

type countingRepo struct {
	mu         sync.Mutex
	byID       map[string]product.Product
	getCalls   int
	batchCalls int
	listCalls  int
}

func (r *countingRepo) List(_ context.Context, _ string) ([]product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	out := make([]product.Product, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *countingRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	p, ok := r.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (r *countingRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchCalls++
	var out []product.Product
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func newCountingRepo(products ...product.Product) *countingRepo {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &countingRepo{byID: byID}
}

func testProduct(id string) product.Product {
	return product.Product{
		ID:     id,
		Name:   "Product " + id,
		Price:  decimal.RequireFromString("9.99"),
		Stock:  10,
		Active: true,
	}
}

func TestGetByID_CachesAfterFirstLoad(t *testing.T) {
	repo := newCountingRepo(testProduct("p1"))
	cache := NewCache(repo)
	ctx := context.Background()

	for range 3 {
		p, err := cache.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
	}

	assert.Equal(t, 1, repo.getCalls)
}

func TestGetByID_NotFoundIsNotCached(t *testing.T) {
	repo := newCountingRepo()
	cache := NewCache(repo)
	ctx := context.Background()

	_, err := cache.GetByID(ctx, "ghost")
	require.ErrorIs(t, err, product.ErrNotFound)

	// The product appears later; the cache must not remember the miss.
	repo.mu.Lock()
	repo.byID["ghost"] = testProduct("ghost")
	repo.mu.Unlock()

	p, err := cache.GetByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", p.ID)
}

func TestGetByID_ReturnsCopies(t *testing.T) {
	repo := newCountingRepo(testProduct("p1"))
	cache := NewCache(repo)
	ctx := context.Background()

	p1, err := cache.GetByID(ctx, "p1")
	require.NoError(t, err)
	p1.Stock = 0

	p2, err := cache.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, p2.Stock, "mutating a returned product must not corrupt the cache")
}

func TestGetByIDs_BatchLoadsOnlyMisses(t *testing.T) {
	repo := newCountingRepo(testProduct("p1"), testProduct("p2"), testProduct("p3"))
	cache := NewCache(repo)
	ctx := context.Background()

	// Warm p1.
	_, err := cache.GetByID(ctx, "p1")
	require.NoError(t, err)

	products, err := cache.GetByIDs(ctx, []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, 1, repo.batchCalls)

	// Everything is cached now; a second batch hits nothing.
	products, err = cache.GetByIDs(ctx, []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, 1, repo.batchCalls)
}

func TestGetByIDs_UnknownIDsAbsentFromResult(t *testing.T) {
	repo := newCountingRepo(testProduct("p1"))
	cache := NewCache(repo)

	products, err := cache.GetByIDs(context.Background(), []string{"p1", "ghost"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
}

func TestInvalidate_ForcesReload(t *testing.T) {
	repo := newCountingRepo(testProduct("p1"))
	cache := NewCache(repo)
	ctx := context.Background()

	_, err := cache.GetByID(ctx, "p1")
	require.NoError(t, err)

	// Simulate a stock change behind the cache.
	repo.mu.Lock()
	p := repo.byID["p1"]
	p.Stock = 3
	repo.byID["p1"] = p
	repo.mu.Unlock()

	cache.Invalidate("p1")

	got, err := cache.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, 2, repo.getCalls)
}

func TestInvalidateAll(t *testing.T) {
	repo := newCountingRepo(testProduct("p1"), testProduct("p2"))
	cache := NewCache(repo)
	ctx := context.Background()

	_, err := cache.GetByID(ctx, "p1")
	require.NoError(t, err)
	_, err = cache.GetByID(ctx, "p2")
	require.NoError(t, err)

	cache.InvalidateAll()

	_, err = cache.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.getCalls)
}

func TestList_AlwaysDelegates(t *testing.T) {
	repo := newCountingRepo(testProduct("p1"))
	cache := NewCache(repo)
	ctx := context.Background()

	for range 2 {
		_, err := cache.List(ctx, "")
		require.NoError(t, err)
	}

	assert.Equal(t, 2, repo.listCalls)
}

func TestGetByID_ConcurrentMissesShareOneLoad(t *testing.T) {
	repo := newCountingRepo(testProduct("p1"))
	cache := NewCache(repo)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := cache.GetByID(context.Background(), "p1")
			assert.NoError(t, err)
			assert.Equal(t, "p1", p.ID)
		}()
	}
	wg.Wait()

	repo.mu.Lock()
	calls := repo.getCalls
	repo.mu.Unlock()
	assert.LessOrEqual(t, calls, 2, "singleflight should collapse concurrent misses")
}
