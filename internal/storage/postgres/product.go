package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gyshop/storefront/internal/domain/order"
	"github.com/gyshop/storefront/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, stock_quantity, COALESCE(category_id, ''), is_active, image_url`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products WHERE is_active ORDER BY created_at DESC`

	listProductsByCategorySQL = `SELECT ` + productColumns + `
		FROM products WHERE is_active AND category_id = $1 ORDER BY created_at DESC`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	insertProductSQL = `INSERT INTO products (id, name, description, price, stock_quantity, category_id, is_active, image_url)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, stock_quantity = $5,
		    category_id = NULLIF($6, ''), is_active = $7, image_url = $8
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	setStockSQL = `UPDATE products SET stock_quantity = $2 WHERE id = $1`

	stockForUpdateSQL = `SELECT stock_quantity FROM products WHERE id = $1 FOR UPDATE`

	decrementStockSQL = `UPDATE products SET stock_quantity = stock_quantity - $2
		WHERE id = $1 AND stock_quantity >= $2`
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ product.Writer     = (*ProductRepository)(nil)
	_ order.Inventory    = (*ProductRepository)(nil)
)

// ProductRepository implements catalog reads, admin writes, and the
// checkout inventory operations on the products table.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns active products, newest first, optionally filtered by category.
func (r *ProductRepository) List(ctx context.Context, categoryID string) ([]product.Product, error) {
	q := querier(ctx, r.pool)

	var (
		rows pgx.Rows
		err  error
	)
	if categoryID == "" {
		rows, err = q.Query(ctx, listProductsSQL)
	} else {
		rows, err = q.Query(ctx, listProductsByCategorySQL, categoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// CreateProduct inserts a new catalog item.
func (r *ProductRepository) CreateProduct(ctx context.Context, p *product.Product) error {
	_, err := querier(ctx, r.pool).Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.Active, p.ImageURL,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return product.ErrCategoryNotFound
		}
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// UpdateProduct overwrites all mutable fields of a catalog item.
func (r *ProductRepository) UpdateProduct(ctx context.Context, p *product.Product) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.Active, p.ImageURL,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return product.ErrCategoryNotFound
		}
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a catalog item.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// SetStock overwrites the stock quantity for a product.
func (r *ProductRepository) SetStock(ctx context.Context, id string, quantity int) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, setStockSQL, id, quantity)
	if err != nil {
		return fmt.Errorf("setting stock for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// StockForUpdate reads the current stock for a product, locking its row for
// the rest of the surrounding transaction.
func (r *ProductRepository) StockForUpdate(ctx context.Context, productID string) (int, error) {
	var stock int
	err := querier(ctx, r.pool).QueryRow(ctx, stockForUpdateSQL, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, product.ErrNotFound
		}
		return 0, fmt.Errorf("reading stock for %q: %w", productID, err)
	}
	return stock, nil
}

// Decrement reduces stock by qty with an availability guard in the WHERE
// clause, so the column can never go negative. A failed guard means a
// concurrent checkout won the race after validation; the caller restarts.
func (r *ProductRepository) Decrement(ctx context.Context, productID string, qty int) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, decrementStockSQL, productID, qty)
	if err != nil {
		return fmt.Errorf("decrementing stock for %q: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrTxConflict
	}
	return nil
}

// CreateCategory inserts a new category.
func (r *ProductRepository) CreateCategory(ctx context.Context, c *product.Category) error {
	_, err := querier(ctx, r.pool).Exec(ctx,
		`INSERT INTO categories (id, name, description) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Errorf("category %q already exists", c.Name)
		}
		return fmt.Errorf("creating category %q: %w", c.ID, err)
	}
	return nil
}

// DeleteCategory removes a category. Categories still referenced by
// products are refused.
func (r *ProductRepository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return product.ErrCategoryInUse
		}
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrCategoryNotFound
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *ProductRepository) ListCategories(ctx context.Context) ([]product.Category, error) {
	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT id, name, description FROM categories ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Category, error) {
		var c product.Category
		err := row.Scan(&c.ID, &c.Name, &c.Description)
		return c, err
	})
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &price, &p.Stock,
		&p.CategoryID, &p.Active, &p.ImageURL,
	)
	p.Price = price
	return p, err
}
