package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shoplane/shoplane/internal/cart"
	"github.com/shoplane/shoplane/internal/orders"
)

type CartHandler struct {
	Service *cart.Service
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.get)
	r.Post("/cart/items", h.addItem)
	r.Patch("/cart/items/{itemId}", h.updateItem)
	r.Delete("/cart", h.clear)
	r.Post("/checkout", h.checkout)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.Get(ctx, tenantID(r), sessionID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if o == nil {
		// nothing persisted yet; render an empty cart
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         orders.StatusCart,
			"items":          []orders.Item{},
			"subtotal_cents": 0,
			"total_cents":    0,
		})
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.AddItem(ctx, tenantID(r), sessionID(r), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type updateItemReq struct {
	Quantity int64 `json:"quantity"`
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.UpdateItem(ctx, tenantID(r), sessionID(r), chi.URLParam(r, "itemId"), req.Quantity)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.Clear(ctx, tenantID(r), sessionID(r)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Service.Checkout(ctx, tenantID(r), sessionID(r))
	if err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			writeError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		if errors.Is(err, orders.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no cart for session")
			return
		}
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
