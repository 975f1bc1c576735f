package inventory

import "context"

// Store is the persistence port for stock records. Mutations are atomic
// compare-and-swap operations: the guard and the write happen in one
// statement, never as a read followed by a write. Each mutation returns the
// record as it stands after the operation.
type Store interface {
	Initialize(ctx context.Context, rec *Record) (*Record, error)
	Get(ctx context.Context, tenantID, variantID, warehouse string) (*Record, error)

	// Reserve moves qty from available into reserved. ErrInsufficientStock
	// when available < qty, ErrNotFound when no record exists.
	Reserve(ctx context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error)

	// Release returns qty from reserved to available, clamping at zero so an
	// over-release is idempotent rather than an error.
	Release(ctx context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error)

	// ConsumeReserved finalizes a sale: both counters drop by qty. Fails with
	// ErrInsufficientStock (and no mutation) unless both can cover it.
	ConsumeReserved(ctx context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error)

	// Adjust applies a signed correction to on-hand stock, flooring at the
	// reserved count so the ledger invariant survives large negative deltas.
	Adjust(ctx context.Context, tenantID, variantID, warehouse string, delta int64) (*Record, error)

	// LowStock lists records with stock_on_hand <= min_stock_level, optionally
	// restricted to one warehouse.
	LowStock(ctx context.Context, tenantID, warehouse string) ([]Record, error)
}
