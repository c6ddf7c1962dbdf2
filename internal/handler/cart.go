package handler

import (
	"net/http"
)

type cartMutationRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartLineJSON struct {
	Product  productJSON `json:"product"`
	Quantity int         `json:"quantity"`
	Subtotal string      `json:"subtotal"`
}

type cartViewJSON struct {
	Lines []cartLineJSON `json:"lines"`
	Total string         `json:"total"`
	Count int            `json:"count"`
}

type cartCountJSON struct {
	Count    int     `json:"count"`
	Subtotal *string `json:"subtotal,omitempty"`
}

// ViewCart resolves the session's cart against the catalog. Stale entries
// whose product no longer exists are omitted.
func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	lines, total, err := h.carts.View(r.Context(), sessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	view := cartViewJSON{
		Lines: make([]cartLineJSON, len(lines)),
		Total: total.StringFixed(2),
	}
	for i, line := range lines {
		view.Lines[i] = cartLineJSON{
			Product:  toProductJSON(line.Product),
			Quantity: line.Quantity,
			Subtotal: line.Subtotal.StringFixed(2),
		}
		view.Count += line.Quantity
	}
	writeJSON(w, http.StatusOK, view)
}

// AddToCart adds quantity of a product to the session's cart.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartMutationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sessionID := h.sessionID(w, r)

	count, err := h.carts.Add(r.Context(), sessionID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartCountJSON{Count: count})
}

// UpdateCart sets the exact quantity for a product; zero or negative
// removes the entry. The response carries the line's live-priced subtotal
// when the product remains in the cart.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req cartMutationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sessionID := h.sessionID(w, r)

	count, subtotal, err := h.carts.SetQuantity(r.Context(), sessionID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := cartCountJSON{Count: count}
	if subtotal != nil {
		s := subtotal.StringFixed(2)
		resp.Subtotal = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

// RemoveFromCart deletes a product from the session's cart.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req cartMutationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sessionID := h.sessionID(w, r)

	count, err := h.carts.Remove(r.Context(), sessionID, req.ProductID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartCountJSON{Count: count})
}
