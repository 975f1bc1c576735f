package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shoplane/shoplane/internal/catalog"
)

type CatalogHandler struct {
	Store catalog.Store
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{id}", h.getProduct)
	r.Patch("/products/{id}", h.updateProduct)

	r.Get("/variants", h.listVariants)
	r.Post("/variants", h.createVariant)
	r.Get("/variants/{id}", h.getVariant)
}

type createProductReq struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	SKU            string `json:"sku"`
	BasePriceCents int64  `json:"base_price_cents"`
	Currency       string `json:"currency"`
	IsActive       *bool  `json:"is_active"`
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.BasePriceCents < 0 {
		writeError(w, http.StatusBadRequest, "base_price_cents must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := &catalog.Product{
		ID:             uuid.NewString(),
		TenantID:       tenantID(r),
		Name:           req.Name,
		Description:    req.Description,
		SKU:            req.SKU,
		BasePriceCents: req.BasePriceCents,
		Currency:       req.Currency,
		IsActive:       true,
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := h.Store.CreateProduct(ctx, p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Store.ListProducts(ctx, tenantID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Store.GetProduct(ctx, tenantID(r), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updateProductReq struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	SKU            *string `json:"sku"`
	BasePriceCents *int64  `json:"base_price_cents"`
	Currency       *string `json:"currency"`
	IsActive       *bool   `json:"is_active"`
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name must not be empty")
		return
	}
	if req.BasePriceCents != nil && *req.BasePriceCents < 0 {
		writeError(w, http.StatusBadRequest, "base_price_cents must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Store.GetProduct(ctx, tenantID(r), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.BasePriceCents != nil {
		p.BasePriceCents = *req.BasePriceCents
	}
	if req.Currency != nil {
		p.Currency = *req.Currency
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := h.Store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type createVariantReq struct {
	ProductID  string          `json:"product_id"`
	SKU        string          `json:"sku"`
	Options    catalog.Options `json:"options"`
	PriceCents *int64          `json:"price_cents"`
	IsActive   *bool           `json:"is_active"`
}

func (h *CatalogHandler) createVariant(w http.ResponseWriter, r *http.Request) {
	var req createVariantReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if err := req.Options.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PriceCents != nil && *req.PriceCents <= 0 {
		writeError(w, http.StatusBadRequest, "price_cents must be greater than zero")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Store.GetProduct(ctx, tenantID(r), req.ProductID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	v := &catalog.Variant{
		ID:         uuid.NewString(),
		TenantID:   tenantID(r),
		ProductID:  req.ProductID,
		SKU:        req.SKU,
		Options:    req.Options,
		PriceCents: req.PriceCents,
		IsActive:   true,
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	if err := h.Store.CreateVariant(ctx, v); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *CatalogHandler) listVariants(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	vs, err := h.Store.ListVariants(ctx, tenantID(r), r.URL.Query().Get("product_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, vs)
}

func (h *CatalogHandler) getVariant(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Store.GetVariant(ctx, tenantID(r), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "variant not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}
