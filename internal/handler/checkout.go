package handler

import (
	"net/http"

	"github.com/gyshop/storefront/internal/domain/order"
)

type checkoutRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	PaymentRef string `json:"payment_ref,omitempty"`
}

func (req *checkoutRequest) customer() order.Customer {
	return order.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
}

type orderJSON struct {
	ID        string          `json:"id"`
	Lines     []orderLineJSON `json:"lines"`
	Subtotal  string          `json:"subtotal"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"created_at"`
}

type orderLineJSON struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

func toOrderJSON(o *order.Order) orderJSON {
	out := orderJSON{
		ID:        o.ID,
		Lines:     make([]orderLineJSON, len(o.Lines)),
		Subtotal:  o.Subtotal.StringFixed(2),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.Format(timeFormat),
	}
	for i, line := range o.Lines {
		out.Lines[i] = orderLineJSON{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Quantity:  line.Quantity,
		}
	}
	return out
}

// CheckoutCash commits the cart as a pending order awaiting manual payment
// confirmation.
func (h *Handler) CheckoutCash(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sessionID := h.sessionID(w, r)

	o, err := h.committer.CheckoutCash(r.Context(), sessionID, req.customer())
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.invalidateLines(o)
	writeJSON(w, http.StatusCreated, toOrderJSON(o))
}

// CheckoutOnline commits the cart as a paid order using the provider's
// payment confirmation reference.
func (h *Handler) CheckoutOnline(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PaymentRef == "" {
		writeError(w, http.StatusBadRequest, "payment_ref is required")
		return
	}
	sessionID := h.sessionID(w, r)

	o, err := h.committer.CheckoutOnline(r.Context(), sessionID, req.customer(), req.PaymentRef)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.invalidateLines(o)
	writeJSON(w, http.StatusCreated, toOrderJSON(o))
}

// invalidateLines drops cached catalog entries whose stock just changed.
func (h *Handler) invalidateLines(o *order.Order) {
	for _, line := range o.Lines {
		h.products.Invalidate(line.ProductID)
	}
}
