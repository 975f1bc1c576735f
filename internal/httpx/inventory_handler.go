package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shoplane/shoplane/internal/inventory"
)

type InventoryHandler struct {
	Ledger *inventory.Ledger
}

func (h *InventoryHandler) Register(r chi.Router) {
	r.Post("/inventory", h.initialize)
	r.Post("/inventory/adjust", h.adjust)
	r.Post("/inventory/reserve", h.reserve)
	r.Post("/inventory/release", h.release)
	r.Get("/inventory/alerts/low-stock", h.lowStock)
	r.Get("/inventory/{variantId}", h.get)
}

// inventoryResp adds the derived available count to the raw record.
type inventoryResp struct {
	inventory.Record
	Available int64 `json:"available"`
}

func toResp(rec *inventory.Record) inventoryResp {
	return inventoryResp{Record: *rec, Available: rec.Available()}
}

type initializeReq struct {
	VariantID     string `json:"variant_id"`
	WarehouseCode string `json:"warehouse_code"`
	InitialStock  int64  `json:"initial_stock"`
	MinStockLevel int64  `json:"min_stock_level"`
}

func (h *InventoryHandler) initialize(w http.ResponseWriter, r *http.Request) {
	var req initializeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.VariantID == "" {
		writeError(w, http.StatusBadRequest, "variant_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Ledger.Initialize(ctx, tenantID(r), req.VariantID, req.WarehouseCode, req.InitialStock, req.MinStockLevel)
	if errors.Is(err, inventory.ErrNegativeStock) {
		writeError(w, http.StatusBadRequest, "initial_stock and min_stock_level must not be negative")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toResp(rec))
}

func (h *InventoryHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rec, err := h.Ledger.Get(ctx, tenantID(r), chi.URLParam(r, "variantId"), r.URL.Query().Get("warehouse"))
	if errors.Is(err, inventory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "inventory record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResp(rec))
}

type adjustReq struct {
	VariantID     string `json:"variant_id"`
	WarehouseCode string `json:"warehouse_code"`
	Delta         int64  `json:"delta"`
}

func (h *InventoryHandler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.VariantID == "" {
		writeError(w, http.StatusBadRequest, "variant_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Ledger.Adjust(ctx, tenantID(r), req.VariantID, req.WarehouseCode, req.Delta)
	if errors.Is(err, inventory.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "inventory record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResp(rec))
}

type moveReq struct {
	VariantID     string `json:"variant_id"`
	WarehouseCode string `json:"warehouse_code"`
	Quantity      int64  `json:"quantity"`
}

func (h *InventoryHandler) reserve(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.VariantID == "" {
		writeError(w, http.StatusBadRequest, "variant_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Ledger.Reserve(ctx, tenantID(r), req.VariantID, req.WarehouseCode, req.Quantity)
	switch {
	case errors.Is(err, inventory.ErrBadQuantity):
		writeError(w, http.StatusBadRequest, "quantity must be greater than zero")
		return
	case errors.Is(err, inventory.ErrInsufficientStock), errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusBadRequest, "Insufficient stock")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResp(rec))
}

func (h *InventoryHandler) release(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.VariantID == "" {
		writeError(w, http.StatusBadRequest, "variant_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Ledger.Release(ctx, tenantID(r), req.VariantID, req.WarehouseCode, req.Quantity)
	switch {
	case errors.Is(err, inventory.ErrBadQuantity):
		writeError(w, http.StatusBadRequest, "quantity must be greater than zero")
		return
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, "inventory record not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResp(rec))
}

func (h *InventoryHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	recs, err := h.Ledger.LowStock(ctx, tenantID(r), r.URL.Query().Get("warehouse"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]inventoryResp, 0, len(recs))
	for i := range recs {
		out = append(out, toResp(&recs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}
