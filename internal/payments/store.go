package payments

import "context"

// Store persists payments and refunds.
//
// SetStatus enforces the transition table inside the store so the check and
// the write land as one atomic step. CreateRefund inserts the refund row and
// flips the payment to refunded in the same transaction; it fails with
// ErrNotRefundable unless the payment is currently succeeded.
type Store interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, tenantID, id string) (*Payment, error)

	// SetStatus moves the payment to the given status and returns the updated
	// row plus the status it moved from.
	SetStatus(ctx context.Context, tenantID, id string, to Status, providerRef string) (*Payment, Status, error)

	// CreateRefund fills in r.OrderID and r.CreatedAt from the payment row and
	// returns the payment as it looks after the refund.
	CreateRefund(ctx context.Context, r *Refund) (*Payment, error)
}
