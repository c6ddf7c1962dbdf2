package handler

import (
	"net/http"

	"github.com/gyshop/storefront/internal/domain/product"
)

type productJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	CategoryID  string `json:"category_id,omitempty"`
	Active      bool   `json:"active"`
	ImageURL    string `json:"image_url,omitempty"`
}

func toProductJSON(p product.Product) productJSON {
	return productJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		Active:      p.Active,
		ImageURL:    p.ImageURL,
	}
}

// ListProducts returns active products, optionally filtered by category.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]productJSON, len(products))
	for i, p := range products {
		out[i] = toProductJSON(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductJSON(*p))
}

type categoryJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListCategories returns all categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.writer.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]categoryJSON, len(categories))
	for i, c := range categories {
		out[i] = categoryJSON{ID: c.ID, Name: c.Name, Description: c.Description}
	}
	writeJSON(w, http.StatusOK, out)
}
