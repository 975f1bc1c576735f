package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/shoplane/shoplane/internal/catalog"
	"github.com/shoplane/shoplane/internal/orders"
	"github.com/shoplane/shoplane/internal/pricing"
	"github.com/shoplane/shoplane/internal/redisx"
)

type OrdersHandler struct {
	Service *orders.Service
	Redis   *redis.Client // optional read cache for GET /orders/{id}
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.list)
	r.Post("/orders", h.create)
	r.Get("/orders/{id}", h.get)
	r.Patch("/orders/{id}/status", h.updateStatus)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.Create(ctx, tenantID(r), in)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := orders.ListFilter{Status: orders.Status(q.Get("status"))}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		f.Offset = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	os, err := h.Service.List(ctx, tenantID(r), f)
	if errors.Is(err, orders.ErrBadStatus) {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	tenant, id := tenantID(r), chi.URLParam(r, "id")

	key := fmt.Sprintf(redisx.KeyOrderCache, tenant, id)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Service.Get(ctx, tenant, id)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.Redis != nil {
		if b, err := json.Marshal(o); err == nil {
			_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var in orders.UpdateStatusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tenant, id := tenantID(r), chi.URLParam(r, "id")

	o, err := h.Service.UpdateStatus(ctx, tenant, id, in)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderCache, tenant, id)).Err()
	}
	writeJSON(w, http.StatusOK, o)
}

// writeOrderError maps order domain errors onto the REST contract: 404 for
// missing orders, 409 for illegal transitions, 400 for everything the caller
// can fix. Shared with the cart handler, which drives the same aggregate.
func writeOrderError(w http.ResponseWriter, err error) {
	var te *orders.TransitionError
	if errors.As(err, &te) {
		writeError(w, http.StatusConflict, te.Error())
		return
	}
	var se *orders.StockShortfallError
	if errors.As(err, &se) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "Insufficient stock",
			"shortfalls": se.Shortfalls,
		})
		return
	}
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusBadRequest, "product or variant not found")
	case errors.Is(err, pricing.ErrNoPrice):
		writeError(w, http.StatusBadRequest, "no active price")
	case errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrBadQuantity),
		errors.Is(err, orders.ErrBadAmount),
		errors.Is(err, orders.ErrBadStatus),
		errors.Is(err, orders.ErrNotEditable),
		errors.Is(err, orders.ErrCartExists):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
