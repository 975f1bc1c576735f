package orders

import "context"

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

type TransitionOpts struct {
	TrackingNumber string
	InternalNotes  string
}

// Status may carry stock side effects; they commit or roll back together with
// the order write so a crash can never strand a reservation:
//
//	cart -> pending_payment          reserve every variant line
//	pending_payment -> paid          consume every reserved line
//	pending_payment -> cancelled     release every reserved line
//	pending_payment -> refunded      release every reserved line
//	anything else                    no stock movement
//
// Store is the persistence port for orders.
type Store interface {
	// CreateWithItems persists the order and its items in one transaction,
	// reserving stock for every variant line when reserve is set.
	CreateWithItems(ctx context.Context, o *Order, reserve bool) error

	Get(ctx context.Context, tenantID, id string) (*Order, error)
	GetBySession(ctx context.Context, tenantID, sessionID string) (*Order, error)
	List(ctx context.Context, tenantID string, f ListFilter) ([]Order, error)

	// Transition moves the order to the target status, enforcing the
	// transition table and applying the stock side effects above. Returns the
	// updated order and the status it moved from.
	Transition(ctx context.Context, tenantID, id string, to Status, opts TransitionOpts) (*Order, Status, error)

	// AddItem merges into an existing line with the same product and variant
	// (keeping the original unit price) or appends a new line, then recomputes
	// order totals. Only cart orders may be edited.
	AddItem(ctx context.Context, tenantID, orderID string, it *Item) (*Order, error)

	// UpdateItemQuantity sets a line's quantity; zero deletes the line. Totals
	// are recomputed in the same transaction.
	UpdateItemQuantity(ctx context.Context, tenantID, orderID, itemID string, qty int64) (*Order, error)

	// Delete removes a cart order; items cascade.
	Delete(ctx context.Context, tenantID, orderID string) error
}
