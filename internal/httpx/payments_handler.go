package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shoplane/shoplane/internal/orders"
	"github.com/shoplane/shoplane/internal/payments"
)

type PaymentsHandler struct {
	Service *payments.Service
}

func (h *PaymentsHandler) Register(r chi.Router) {
	r.Post("/payments", h.create)
	r.Patch("/payments/{id}/status", h.updateStatus)
	r.Post("/refunds", h.refund)
}

func (h *PaymentsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in payments.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Service.Create(ctx, tenantID(r), in)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusBadRequest, "order not found")
		return
	case errors.Is(err, payments.ErrBadAmount),
		errors.Is(err, payments.ErrBadMethod),
		errors.Is(err, payments.ErrNotPayable):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PaymentsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var in payments.UpdateStatusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Service.UpdateStatus(ctx, tenantID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		var te *payments.TransitionError
		switch {
		case errors.As(err, &te):
			writeError(w, http.StatusConflict, te.Error())
		case errors.Is(err, payments.ErrNotFound):
			writeError(w, http.StatusNotFound, "payment not found")
		case errors.Is(err, payments.ErrBadStatus):
			writeError(w, http.StatusBadRequest, "unknown status")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentsHandler) refund(w http.ResponseWriter, r *http.Request) {
	var in payments.RefundInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rf, err := h.Service.Refund(ctx, tenantID(r), in)
	switch {
	case errors.Is(err, payments.ErrNotFound):
		writeError(w, http.StatusBadRequest, "payment not found")
		return
	case errors.Is(err, payments.ErrBadAmount),
		errors.Is(err, payments.ErrNotRefundable),
		errors.Is(err, payments.ErrRefundExceeds),
		errors.Is(err, payments.ErrOrderMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rf)
}
