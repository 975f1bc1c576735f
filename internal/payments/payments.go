package payments

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusSucceeded: true, StatusFailed: true},
	StatusSucceeded: {StatusRefunded: true},
	StatusFailed:    {},
	StatusRefunded:  {},
}

func CanTransition(from, to Status) bool { return validNext[from][to] }

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

var (
	ErrNotFound      = errors.New("payments: payment not found")
	ErrBadAmount     = errors.New("payments: amount_cents must be greater than zero")
	ErrBadMethod     = errors.New("payments: method is required")
	ErrBadStatus     = errors.New("payments: unknown status")
	ErrNotPayable    = errors.New("payments: order is not awaiting payment")
	ErrNotRefundable = errors.New("payments: only succeeded payments can be refunded")
	ErrRefundExceeds = errors.New("payments: refund exceeds payment amount")
	ErrOrderMismatch = errors.New("payments: order_id does not match payment")
)

// TransitionError reports an illegal payment status move.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("payments: cannot transition from %s to %s", e.From, e.To)
}

// Payment records the state of one payment attempt against an order. The
// gateway protocol lives elsewhere; this is state only.
type Payment struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	OrderID     string    `json:"order_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method"`
	Status      Status    `json:"status"`
	ProviderRef string    `json:"provider_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Refund struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	PaymentID   string    `json:"payment_id"`
	OrderID     string    `json:"order_id"`
	AmountCents int64     `json:"amount_cents"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
