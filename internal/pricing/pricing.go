package pricing

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("pricing: price not found")
	ErrNoPrice   = errors.New("pricing: no active price")
	ErrBadAmount = errors.New("pricing: price_cents must be greater than zero")
	ErrBadTarget = errors.New("pricing: exactly one of product_id or variant_id must be set")
)

// Price is one configured price row. It targets either a product or a variant,
// never both, and applies within an optional validity window.
type Price struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	ProductID  *string    `json:"product_id,omitempty"`
	VariantID  *string    `json:"variant_id,omitempty"`
	PriceCents int64      `json:"price_cents"`
	Currency   string     `json:"currency"`
	Label      string     `json:"label,omitempty"`
	IsActive   bool       `json:"is_active"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (p *Price) Validate() error {
	if p.PriceCents <= 0 {
		return ErrBadAmount
	}
	if (p.ProductID == nil) == (p.VariantID == nil) {
		return ErrBadTarget
	}
	return nil
}

// ActiveAt reports whether the row applies at the given instant: the active
// flag is set and the instant falls inside the validity window. Nil bounds are
// open ended.
func (p *Price) ActiveAt(at time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ValidFrom != nil && at.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && at.After(*p.ValidUntil) {
		return false
	}
	return true
}
