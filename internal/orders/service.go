package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/catalog"
	"github.com/shoplane/shoplane/internal/events"
	"github.com/shoplane/shoplane/internal/pricing"
)

// Service owns order creation and lifecycle. Line items snapshot the catalog
// and resolved price at creation time; status moves go through the transition
// table with their stock side effects.
type Service struct {
	store   Store
	catalog catalog.Store
	prices  *pricing.Resolver
	pub     events.Publisher
	log     *zap.Logger
}

func NewService(store Store, cat catalog.Store, prices *pricing.Resolver, pub events.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, catalog: cat, prices: prices, pub: pub, log: log}
}

type CreateItemInput struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

type CreateInput struct {
	UserID        string            `json:"user_id,omitempty"`
	SessionID     string            `json:"session_id,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Status        Status            `json:"status,omitempty"`
	Items         []CreateItemInput `json:"items"`
	ShippingCents int64             `json:"shipping_cents"`
	DiscountCents int64             `json:"discount_cents"`
	CustomerNotes string            `json:"customer_notes,omitempty"`
}

type UpdateStatusInput struct {
	Status         Status `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	InternalNotes  string `json:"internal_notes,omitempty"`
}

// Create builds and persists an order. Orders start as cart or, for direct
// API creation, pending_payment; the latter reserves stock in the same
// transaction that writes the rows. A missing product or variant aborts the
// whole creation.
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	status := in.Status
	if status == "" {
		status = StatusCart
	}
	if status != StatusCart && status != StatusPendingPayment {
		return nil, ErrBadStatus
	}
	if in.ShippingCents < 0 || in.DiscountCents < 0 {
		return nil, ErrBadAmount
	}

	o := &Order{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		OrderNumber:   NewOrderNumber(),
		UserID:        in.UserID,
		SessionID:     in.SessionID,
		CustomerEmail: in.CustomerEmail,
		Status:        status,
		ShippingCents: in.ShippingCents,
		DiscountCents: in.DiscountCents,
		Currency:      "USD",
		CustomerNotes: in.CustomerNotes,
	}

	for _, line := range in.Items {
		it, err := s.BuildItem(ctx, tenantID, line)
		if err != nil {
			return nil, err
		}
		o.SubtotalCents += it.SubtotalCents
		o.Items = append(o.Items, *it)
	}
	o.TotalCents = o.SubtotalCents + o.ShippingCents - o.DiscountCents

	if err := s.store.CreateWithItems(ctx, o, status == StatusPendingPayment); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("tenant_id", tenantID),
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("status", string(o.Status)),
		zap.Int64("total_cents", o.TotalCents))

	if o.Status != StatusCart {
		s.pub.Publish(ctx, events.EventOrderCreated, o.ID, orderCreatedPayload(o))
	}
	return o, nil
}

// BuildItem snapshots product name, variant sku and options, and resolves the
// unit price: configured price rows first, then variant price, then the
// product base price. The cart service uses it when appending to an existing
// cart.
func (s *Service) BuildItem(ctx context.Context, tenantID string, line CreateItemInput) (*Item, error) {
	if line.Quantity <= 0 {
		return nil, ErrBadQuantity
	}
	p, err := s.catalog.GetProduct(ctx, tenantID, line.ProductID)
	if err != nil {
		return nil, err
	}

	it := &Item{
		ID:           uuid.NewString(),
		ProductID:    p.ID,
		NameSnapshot: p.Name,
		SKUSnapshot:  p.SKU,
		Quantity:     line.Quantity,
	}
	fallback := &p.BasePriceCents
	if line.VariantID != "" {
		v, err := s.catalog.GetVariant(ctx, tenantID, line.VariantID)
		if err != nil {
			return nil, err
		}
		if v.ProductID != p.ID {
			return nil, catalog.ErrNotFound
		}
		it.VariantID = v.ID
		if v.SKU != "" {
			it.SKUSnapshot = v.SKU
		}
		it.OptionsSnapshot = v.Options
		if v.PriceCents != nil {
			fallback = v.PriceCents
		}
	}

	unit, err := s.prices.ActivePriceCents(ctx, tenantID, line.ProductID, line.VariantID, fallback)
	if err != nil {
		return nil, err
	}
	it.UnitPriceCents = unit
	it.SubtotalCents = unit * line.Quantity
	return it, nil
}

// UpdateStatus moves an order through the transition table and publishes the
// status change.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, orderID string, in UpdateStatusInput) (*Order, error) {
	if !in.Status.Valid() {
		return nil, ErrBadStatus
	}
	o, from, err := s.store.Transition(ctx, tenantID, orderID, in.Status, TransitionOpts{
		TrackingNumber: in.TrackingNumber,
		InternalNotes:  in.InternalNotes,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("tenant_id", tenantID),
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)))

	s.pub.Publish(ctx, events.EventOrderStatusChanged, orderID, events.OrderStatusChangedPayload{
		OrderID:  orderID,
		TenantID: tenantID,
		From:     string(from),
		To:       string(o.Status),
	})
	return o, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*Order, error) {
	return s.store.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID string, f ListFilter) ([]Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrBadStatus
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.List(ctx, tenantID, f)
}

// NewOrderNumber returns a human-readable number like ORD-20250314-7C2F1A.
// Uniqueness rests on the random suffix; the date prefix is for people.
func NewOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), suffix[:6])
}

func orderCreatedPayload(o *Order) events.OrderCreatedPayload {
	items := make([]events.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, events.LineItem{
			ProductID:      it.ProductID,
			VariantID:      it.VariantID,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	return events.OrderCreatedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		TenantID:    o.TenantID,
		Status:      string(o.Status),
		Items:       items,
		TotalCents:  o.TotalCents,
	}
}
