package events

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventStockLow           = "StockLow"
	EventPaymentCaptured    = "PaymentCaptured"
	EventPaymentFailed      = "PaymentFailed"
	EventRefundCreated      = "RefundCreated"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g. "shop-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // usually order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload types per event ----

type LineItem struct {
	ProductID      string `json:"product_id"`
	VariantID      string `json:"variant_id,omitempty"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type OrderCreatedPayload struct {
	OrderID     string     `json:"order_id"`
	OrderNumber string     `json:"order_number"`
	TenantID    string     `json:"tenant_id"`
	Status      string     `json:"status"`
	Items       []LineItem `json:"items"`
	TotalCents  int64      `json:"total_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID  string `json:"order_id"`
	TenantID string `json:"tenant_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type StockLowPayload struct {
	TenantID      string `json:"tenant_id"`
	VariantID     string `json:"variant_id"`
	WarehouseCode string `json:"warehouse_code"`
	Available     int64  `json:"available"`
	MinStockLevel int64  `json:"min_stock_level"`
}

type PaymentCapturedPayload struct {
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	TenantID    string `json:"tenant_id"`
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
}

type PaymentFailedPayload struct {
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	TenantID    string `json:"tenant_id"`
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason,omitempty"`
}

type RefundCreatedPayload struct {
	RefundID    string `json:"refund_id"`
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	TenantID    string `json:"tenant_id"`
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason,omitempty"`
}
