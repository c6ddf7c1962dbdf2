// Package catalog provides a write-through read cache in front of the
// product repository. The cache is an explicit, injected component with
// invalidation triggered by every catalog mutation, replacing ad-hoc global
// caching of catalog data.
package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gyshop/storefront/internal/domain/product"
)

var _ product.Repository = (*Cache)(nil)

// Cache decorates a product.Repository with an in-memory by-ID cache.
// Single products are cached; list queries always hit the inner repository
// so storefront listings stay ordered and filtered by the database.
//
// Misses are deduplicated with singleflight so a burst of requests for the
// same product results in one inner lookup.
type Cache struct {
	inner product.Repository

	mu     sync.RWMutex
	byID   map[string]product.Product
	flight singleflight.Group
}

// NewCache creates a Cache over the given repository.
func NewCache(inner product.Repository) *Cache {
	return &Cache{
		inner: inner,
		byID:  make(map[string]product.Product),
	}
}

// List delegates to the inner repository.
func (c *Cache) List(ctx context.Context, categoryID string) ([]product.Product, error) {
	return c.inner.List(ctx, categoryID)
}

// GetByID returns the cached product or loads it through singleflight.
func (c *Cache) GetByID(ctx context.Context, id string) (*product.Product, error) {
	c.mu.RLock()
	p, ok := c.byID[id]
	c.mu.RUnlock()
	if ok {
		cp := p
		return &cp, nil
	}

	v, err, _ := c.flight.Do(id, func() (any, error) {
		loaded, err := c.inner.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.byID[id] = *loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	loaded := *(v.(*product.Product))
	return &loaded, nil
}

// GetByIDs serves what it can from the cache and batch-loads the rest.
// Unknown IDs are simply absent from the result, matching the inner
// repository's contract.
func (c *Cache) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	result := make([]product.Product, 0, len(ids))
	var missing []string

	c.mu.RLock()
	for _, id := range ids {
		if p, ok := c.byID[id]; ok {
			result = append(result, p)
		} else {
			missing = append(missing, id)
		}
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := c.inner.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for _, p := range fetched {
		c.byID[p.ID] = p
	}
	c.mu.Unlock()

	return append(result, fetched...), nil
}

// Invalidate drops the cached entry for id. Called by every catalog
// mutation, including stock changes at checkout.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.byID, id)
	c.mu.Unlock()
}

// InvalidateAll drops the whole cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.byID = make(map[string]product.Product)
	c.mu.Unlock()
}
