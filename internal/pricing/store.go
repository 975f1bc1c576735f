package pricing

import "context"

// Store is the persistence port for price rows. Filtering by activity and
// window is the resolver's job; the store only scopes by tenant and target.
type Store interface {
	Create(ctx context.Context, p *Price) error
	Get(ctx context.Context, tenantID, id string) (*Price, error)
	List(ctx context.Context, tenantID string) ([]Price, error)
	ListForProduct(ctx context.Context, tenantID, productID string) ([]Price, error)
	ListForVariant(ctx context.Context, tenantID, variantID string) ([]Price, error)
}
