package catalog

import "context"

// Store is the persistence port for products and variants. Every method is
// tenant-scoped; lookups for another tenant's rows report ErrNotFound.
type Store interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, tenantID, id string) (*Product, error)
	ListProducts(ctx context.Context, tenantID string) ([]Product, error)
	UpdateProduct(ctx context.Context, p *Product) error

	CreateVariant(ctx context.Context, v *Variant) error
	GetVariant(ctx context.Context, tenantID, id string) (*Variant, error)
	ListVariants(ctx context.Context, tenantID, productID string) ([]Variant, error)
}
