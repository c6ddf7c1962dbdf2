// Package handler implements the JSON HTTP transport for the storefront:
// catalog reads, cart mutation, checkout, and the admin surface.
package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gyshop/storefront/internal/catalog"
	"github.com/gyshop/storefront/internal/domain/cart"
	"github.com/gyshop/storefront/internal/domain/order"
	"github.com/gyshop/storefront/internal/domain/product"
	"github.com/gyshop/storefront/internal/domain/settings"
)

// sessionCookie is the cookie carrying the cart session identifier.
const sessionCookie = "session_id"

// sessionHeader overrides the cookie for API clients that manage their own
// session identifiers.
const sessionHeader = "X-Session-ID"

// Handler wires domain services to HTTP routes.
type Handler struct {
	products  *catalog.Cache
	writer    product.Writer
	carts     *cart.Service
	committer *order.Committer
	orders    order.Repository
	settings  settings.Repository
}

// New constructs a Handler with the required domain dependencies.
func New(
	products *catalog.Cache,
	writer product.Writer,
	carts *cart.Service,
	committer *order.Committer,
	orders order.Repository,
	stngs settings.Repository,
) *Handler {
	return &Handler{
		products:  products,
		writer:    writer,
		carts:     carts,
		committer: committer,
		orders:    orders,
		settings:  stngs,
	}
}

// Routes registers all API routes on a new mux. Admin routes must be
// protected by wrapping them with the security middleware; admin is kept on
// its own sub-mux for that reason.
func (h *Handler) Routes(adminAuth func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/categories", h.ListCategories)

	mux.HandleFunc("GET /api/cart", h.ViewCart)
	mux.HandleFunc("POST /api/cart/add", h.AddToCart)
	mux.HandleFunc("POST /api/cart/update", h.UpdateCart)
	mux.HandleFunc("POST /api/cart/remove", h.RemoveFromCart)

	mux.HandleFunc("POST /api/order/cash", h.CheckoutCash)
	mux.HandleFunc("POST /api/order/online", h.CheckoutOnline)

	admin := http.NewServeMux()
	admin.HandleFunc("GET /api/admin/dashboard", h.Dashboard)
	admin.HandleFunc("POST /api/admin/products", h.CreateProduct)
	admin.HandleFunc("GET /api/admin/products", h.AdminListProducts)
	admin.HandleFunc("PUT /api/admin/products/{id}", h.UpdateProduct)
	admin.HandleFunc("DELETE /api/admin/products/{id}", h.DeleteProduct)
	admin.HandleFunc("PUT /api/admin/products/{id}/stock", h.SetStock)
	admin.HandleFunc("POST /api/admin/categories", h.CreateCategory)
	admin.HandleFunc("GET /api/admin/categories", h.ListCategories)
	admin.HandleFunc("DELETE /api/admin/categories/{id}", h.DeleteCategory)
	admin.HandleFunc("GET /api/admin/orders", h.ListOrders)
	admin.HandleFunc("POST /api/admin/orders/{id}/paid", h.ConfirmPayment)
	admin.HandleFunc("GET /api/admin/settings", h.GetSettings)
	admin.HandleFunc("PUT /api/admin/settings", h.UpdateSettings)
	mux.Handle("/api/admin/", adminAuth(admin))

	return mux
}

// sessionID returns the request's cart session identifier, issuing a new one
// as a cookie when the request carries none.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if id := r.Header.Get(sessionHeader); id != "" {
		return id
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
