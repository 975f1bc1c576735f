package inventory

import (
	"errors"
	"time"
)

// DefaultWarehouse is used whenever a caller does not name one.
const DefaultWarehouse = "MAIN"

var (
	ErrNotFound          = errors.New("inventory: record not found")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrBadQuantity       = errors.New("inventory: quantity must be greater than zero")
	ErrNegativeStock     = errors.New("inventory: stock must not be negative")
)

// Record is one stock row per (tenant, variant, warehouse).
// Invariant: 0 <= stock_reserved <= stock_on_hand.
type Record struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	VariantID     string    `json:"variant_id"`
	WarehouseCode string    `json:"warehouse_code"`
	StockOnHand   int64     `json:"stock_on_hand"`
	StockReserved int64     `json:"stock_reserved"`
	MinStockLevel int64     `json:"min_stock_level"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Available is the sellable quantity: on hand minus reserved.
func (r *Record) Available() int64 { return r.StockOnHand - r.StockReserved }

// LowStock reports whether on-hand stock sits at or below the alert threshold.
func (r *Record) LowStock() bool { return r.StockOnHand <= r.MinStockLevel }
