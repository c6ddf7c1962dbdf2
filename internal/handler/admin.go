package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gyshop/storefront/internal/domain/product"
	"github.com/gyshop/storefront/internal/domain/settings"
)

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	CategoryID  string `json:"category_id"`
	Active      bool   `json:"active"`
	ImageURL    string `json:"image_url"`
}

func (req *productRequest) toProduct(id string) (*product.Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, err
	}
	return &product.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		Active:      req.Active,
		ImageURL:    req.ImageURL,
	}, nil
}

func (req *productRequest) validate() string {
	switch {
	case req.Name == "":
		return "name is required"
	case req.Stock < 0:
		return "stock must not be negative"
	}
	if price, err := decimal.NewFromString(req.Price); err != nil || price.IsNegative() {
		return "price must be a non-negative decimal"
	}
	return ""
}

// CreateProduct adds a new catalog item.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	p, _ := req.toProduct(uuid.New().String())
	if err := h.writer.CreateProduct(r.Context(), p); err != nil {
		respondError(w, r, err)
		return
	}

	h.products.Invalidate(p.ID)
	writeJSON(w, http.StatusCreated, toProductJSON(*p))
}

// AdminListProducts returns the catalog for the admin panel.
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	// Inactive products stay resolvable by ID, so admins reach them
	// through the item endpoints.
	h.ListProducts(w, r)
}

// UpdateProduct overwrites a catalog item.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	id := r.PathValue("id")
	p, _ := req.toProduct(id)
	if err := h.writer.UpdateProduct(r.Context(), p); err != nil {
		respondError(w, r, err)
		return
	}

	h.products.Invalidate(id)
	writeJSON(w, http.StatusOK, toProductJSON(*p))
}

// DeleteProduct removes a catalog item. Carts referencing it keep their
// entries; cart views skip unresolvable products by design.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.writer.DeleteProduct(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	h.products.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

type stockRequest struct {
	Stock int `json:"stock"`
}

// SetStock overwrites a product's stock quantity.
func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Stock < 0 {
		writeError(w, http.StatusBadRequest, "stock must not be negative")
		return
	}

	id := r.PathValue("id")
	if err := h.writer.SetStock(r.Context(), id, req.Stock); err != nil {
		respondError(w, r, err)
		return
	}

	h.products.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateCategory adds a new category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	c := &product.Category{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.writer.CreateCategory(r.Context(), c); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryJSON{ID: c.ID, Name: c.Name, Description: c.Description})
}

// DeleteCategory removes a category; refused while products reference it.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.writer.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOrders returns all orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]orderJSON, len(orders))
	for i := range orders {
		out[i] = toOrderJSON(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// ConfirmPayment transitions a pending order to paid.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.orders.MarkPaid(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderJSON(o))
}

type settingsJSON struct {
	StoreName           string `json:"store_name"`
	Tagline             string `json:"tagline"`
	ContactEmail        string `json:"contact_email"`
	Phone               string `json:"phone"`
	Address             string `json:"address"`
	ThemeColor          string `json:"theme_color"`
	LogoURL             string `json:"logo_url"`
	PaymentInstructions string `json:"payment_instructions"`
}

// GetSettings returns the store settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsJSON(*s))
}

// UpdateSettings overwrites the store settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsJSON
	if !decodeBody(w, r, &req) {
		return
	}
	if req.StoreName == "" {
		writeError(w, http.StatusBadRequest, "store_name is required")
		return
	}

	s := settings.Settings(req)
	if err := h.settings.Save(r.Context(), &s); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type dashboardJSON struct {
	ProductCount int         `json:"product_count"`
	OrderCount   int         `json:"order_count"`
	LowStock     []string    `json:"low_stock_product_ids"`
	RecentOrders []orderJSON `json:"recent_orders"`
}

// lowStockThreshold flags products nearly sold out on the dashboard.
const lowStockThreshold = 5

// Dashboard summarizes the catalog and recent order activity.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context(), "")
	if err != nil {
		respondError(w, r, err)
		return
	}
	orders, err := h.orders.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	dash := dashboardJSON{
		ProductCount: len(products),
		OrderCount:   len(orders),
	}
	for _, p := range products {
		if p.Stock > 0 && p.Stock <= lowStockThreshold {
			dash.LowStock = append(dash.LowStock, p.ID)
		}
	}
	for i := range orders {
		if i == 5 {
			break
		}
		dash.RecentOrders = append(dash.RecentOrders, toOrderJSON(&orders[i]))
	}
	writeJSON(w, http.StatusOK, dash)
}
