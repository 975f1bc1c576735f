package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/events"
	"github.com/shoplane/shoplane/internal/orders"
)

// Service records payment attempts against orders and emits the capture,
// failure and refund events the fulfillment worker reacts to. It never talks
// to a gateway; callers report outcomes via UpdateStatus.
type Service struct {
	store  Store
	orders *orders.Service
	pub    events.Publisher
	log    *zap.Logger
}

func NewService(store Store, ord *orders.Service, pub events.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, orders: ord, pub: pub, log: log}
}

type CreateInput struct {
	OrderID     string `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	ProviderRef string `json:"provider_ref,omitempty"`
}

type UpdateStatusInput struct {
	Status      Status `json:"status"`
	ProviderRef string `json:"provider_ref,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type RefundInput struct {
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason,omitempty"`
}

// Create opens a pending payment for an order that is awaiting payment.
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (*Payment, error) {
	if in.AmountCents <= 0 {
		return nil, ErrBadAmount
	}
	if strings.TrimSpace(in.Method) == "" {
		return nil, ErrBadMethod
	}
	o, err := s.orders.Get(ctx, tenantID, in.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status != orders.StatusPendingPayment {
		return nil, ErrNotPayable
	}

	p := &Payment{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		OrderID:     o.ID,
		AmountCents: in.AmountCents,
		Currency:    o.Currency,
		Method:      in.Method,
		Status:      StatusPending,
		ProviderRef: in.ProviderRef,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("payment created",
		zap.String("tenant_id", tenantID),
		zap.String("payment_id", p.ID),
		zap.String("order_id", p.OrderID),
		zap.Int64("amount_cents", p.AmountCents),
		zap.String("method", p.Method))
	return p, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*Payment, error) {
	return s.store.Get(ctx, tenantID, id)
}

// UpdateStatus records a gateway outcome. A succeeded payment publishes
// PaymentCaptured, a failed one PaymentFailed; the fulfillment worker picks
// those up and moves the order.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id string, in UpdateStatusInput) (*Payment, error) {
	if !in.Status.Valid() {
		return nil, ErrBadStatus
	}
	p, from, err := s.store.SetStatus(ctx, tenantID, id, in.Status, in.ProviderRef)
	if err != nil {
		return nil, err
	}

	s.log.Info("payment status changed",
		zap.String("tenant_id", tenantID),
		zap.String("payment_id", p.ID),
		zap.String("order_id", p.OrderID),
		zap.String("from", string(from)),
		zap.String("to", string(p.Status)))

	switch p.Status {
	case StatusSucceeded:
		s.pub.Publish(ctx, events.EventPaymentCaptured, p.OrderID, events.PaymentCapturedPayload{
			PaymentID:   p.ID,
			OrderID:     p.OrderID,
			TenantID:    tenantID,
			AmountCents: p.AmountCents,
			Method:      p.Method,
		})
	case StatusFailed:
		s.pub.Publish(ctx, events.EventPaymentFailed, p.OrderID, events.PaymentFailedPayload{
			PaymentID:   p.ID,
			OrderID:     p.OrderID,
			TenantID:    tenantID,
			AmountCents: p.AmountCents,
			Reason:      in.Reason,
		})
	}
	return p, nil
}

// Refund records a refund against a succeeded payment and publishes
// RefundCreated. The order itself moves to refunded when the worker consumes
// the event.
func (s *Service) Refund(ctx context.Context, tenantID string, in RefundInput) (*Refund, error) {
	if in.AmountCents <= 0 {
		return nil, ErrBadAmount
	}
	// the order is always derived from the payment row; a client-sent
	// order_id is only checked against it
	if in.OrderID != "" {
		p, err := s.store.Get(ctx, tenantID, in.PaymentID)
		if err != nil {
			return nil, err
		}
		if p.OrderID != in.OrderID {
			return nil, ErrOrderMismatch
		}
	}
	rf := &Refund{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		PaymentID:   in.PaymentID,
		AmountCents: in.AmountCents,
		Reason:      in.Reason,
	}
	p, err := s.store.CreateRefund(ctx, rf)
	if err != nil {
		return nil, err
	}

	s.log.Info("refund created",
		zap.String("tenant_id", tenantID),
		zap.String("refund_id", rf.ID),
		zap.String("payment_id", p.ID),
		zap.String("order_id", p.OrderID),
		zap.Int64("amount_cents", rf.AmountCents))

	s.pub.Publish(ctx, events.EventRefundCreated, p.OrderID, events.RefundCreatedPayload{
		RefundID:    rf.ID,
		PaymentID:   p.ID,
		OrderID:     p.OrderID,
		TenantID:    tenantID,
		AmountCents: rf.AmountCents,
		Reason:      rf.Reason,
	})
	return rf, nil
}
