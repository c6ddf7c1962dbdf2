package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/gyshop/storefront/internal/domain/cart"
	"github.com/gyshop/storefront/internal/domain/order"
	"github.com/gyshop/storefront/internal/domain/product"
)

// timeFormat is used for all timestamps in responses.
const timeFormat = "2006-01-02T15:04:05Z07:00"

type errorResponse struct {
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	Shortages []shortageJSON `json:"shortages,omitempty"`
}

type shortageJSON struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondError maps domain errors to HTTP responses. Unknown errors are
// logged and reported as 500 without leaking details; per the checkout
// contract the client is told no order was created and the cart is intact.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound     *cart.ProductNotFoundError
		unavailable  *cart.ProductUnavailableError
		invalidQty   *cart.InvalidQuantityError
		insufficient *order.InsufficientStockError
	)

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, product.ErrNotFound.Error())
	case errors.Is(err, product.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, product.ErrCategoryNotFound.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, order.ErrNotFound.Error())
	case errors.As(err, &unavailable):
		writeError(w, http.StatusUnprocessableEntity, unavailable.Error())
	case errors.As(err, &invalidQty):
		writeError(w, http.StatusUnprocessableEntity, invalidQty.Error())
	case errors.Is(err, cart.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, cart.ErrEmptyCart.Error())
	case errors.As(err, &insufficient):
		shortages := make([]shortageJSON, len(insufficient.Shortages))
		for i, s := range insufficient.Shortages {
			shortages[i] = shortageJSON{
				ProductID: s.ProductID,
				Requested: s.Requested,
				Available: s.Available,
			}
		}
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:      http.StatusConflict,
			Message:   insufficient.Error(),
			Shortages: shortages,
		})
	case errors.Is(err, order.ErrConflict):
		writeError(w, http.StatusConflict, "checkout conflicted with concurrent orders, please retry")
	case errors.Is(err, order.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, order.ErrAlreadyPaid.Error())
	case errors.Is(err, product.ErrCategoryInUse):
		writeError(w, http.StatusConflict, product.ErrCategoryInUse.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
