package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrCategoryNotFound is returned when a requested category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// ErrCategoryInUse is returned when deleting a category that still has products.
var ErrCategoryInUse = errors.New("category has products")

// Product represents a catalog item available for purchase.
//
// Stock is the quantity available for sale. It is never negative and is only
// decremented through the checkout committer's guarded stock reduction.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  string
	Active      bool
	ImageURL    string
}

// Category groups products for storefront browsing.
type Category struct {
	ID          string
	Name        string
	Description string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context, categoryID string) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// Writer defines catalog mutations used by the admin surface.
type Writer interface {
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error
	SetStock(ctx context.Context, id string, quantity int) error
	CreateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]Category, error)
}
