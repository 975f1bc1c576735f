package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shoplane/shoplane/internal/pricing"
)

type PricesHandler struct {
	Store    pricing.Store
	Resolver *pricing.Resolver
}

func (h *PricesHandler) Register(r chi.Router) {
	r.Get("/prices", h.listPrices)
	r.Post("/prices", h.createPrice)
	r.Get("/prices/{id}", h.getPrice)

	// resolved view: only rows active right now
	r.Get("/products/{id}/prices", h.productPrices)
}

type createPriceReq struct {
	ProductID  *string    `json:"product_id"`
	VariantID  *string    `json:"variant_id"`
	PriceCents int64      `json:"price_cents"`
	Currency   string     `json:"currency"`
	Label      string     `json:"label"`
	IsActive   *bool      `json:"is_active"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
}

func (h *PricesHandler) createPrice(w http.ResponseWriter, r *http.Request) {
	var req createPriceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	p := &pricing.Price{
		ID:         uuid.NewString(),
		TenantID:   tenantID(r),
		ProductID:  req.ProductID,
		VariantID:  req.VariantID,
		PriceCents: req.PriceCents,
		Currency:   req.Currency,
		Label:      req.Label,
		IsActive:   true,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Create(ctx, p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PricesHandler) listPrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Store.List(ctx, tenantID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

type priceResp struct {
	pricing.Price
	Active bool `json:"active"`
}

func (h *PricesHandler) getPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Store.Get(ctx, tenantID(r), chi.URLParam(r, "id"))
	if errors.Is(err, pricing.ErrNotFound) {
		writeError(w, http.StatusNotFound, "price not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	active, err := h.Resolver.IsActive(ctx, tenantID(r), p.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, priceResp{Price: *p, Active: active})
}

func (h *PricesHandler) productPrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Resolver.ProductPrices(ctx, tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
