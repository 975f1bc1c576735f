package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shoplane/shoplane/internal/catalog"
)

var (
	ErrNotFound     = errors.New("orders: order not found")
	ErrItemNotFound = errors.New("orders: order item not found")
	ErrEmptyOrder   = errors.New("orders: order needs at least one item")
	ErrBadQuantity  = errors.New("orders: quantity must be greater than zero")
	ErrBadAmount    = errors.New("orders: amounts must not be negative")
	ErrBadStatus    = errors.New("orders: unknown or disallowed status")
	ErrNotEditable  = errors.New("orders: only cart orders can be edited")
	ErrCartExists   = errors.New("orders: a cart already exists for this session")
)

// TransitionError reports an illegal status move.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("orders: cannot transition from %s to %s", e.From, e.To)
}

// Shortfall is one line the ledger could not cover.
type Shortfall struct {
	VariantID     string `json:"variant_id"`
	WarehouseCode string `json:"warehouse_code"`
	Requested     int64  `json:"requested"`
	Available     int64  `json:"available"`
}

// StockShortfallError aborts a transition that needed stock it could not get.
// The whole transition rolls back; no line keeps a partial reservation.
type StockShortfallError struct {
	Shortfalls []Shortfall
}

func (e *StockShortfallError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s requested %d available %d", s.VariantID, s.Requested, s.Available))
	}
	return "orders: insufficient stock: " + strings.Join(parts, "; ")
}

type Order struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	OrderNumber    string     `json:"order_number"`
	UserID         string     `json:"user_id,omitempty"`
	SessionID      string     `json:"session_id,omitempty"`
	CustomerEmail  string     `json:"customer_email,omitempty"`
	Status         Status     `json:"status"`
	SubtotalCents  int64      `json:"subtotal_cents"`
	DiscountCents  int64      `json:"discount_cents"`
	ShippingCents  int64      `json:"shipping_cents"`
	TaxCents       int64      `json:"tax_cents"`
	TotalCents     int64      `json:"total_cents"`
	Currency       string     `json:"currency"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	CustomerNotes  string     `json:"customer_notes,omitempty"`
	InternalNotes  string     `json:"internal_notes,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Items          []Item     `json:"items,omitempty"`
}

// Item is a line with the product data frozen at the moment it entered the
// order. Later catalog or price edits never change it.
type Item struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	ProductID       string          `json:"product_id"`
	VariantID       string          `json:"variant_id,omitempty"`
	NameSnapshot    string          `json:"name_snapshot"`
	SKUSnapshot     string          `json:"sku_snapshot,omitempty"`
	OptionsSnapshot catalog.Options `json:"options_snapshot,omitempty"`
	UnitPriceCents  int64           `json:"unit_price_cents"`
	Quantity        int64           `json:"quantity"`
	SubtotalCents   int64           `json:"subtotal_cents"`
	CreatedAt       time.Time       `json:"created_at"`
}
