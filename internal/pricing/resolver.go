package pricing

import (
	"context"
	"sort"
	"time"
)

// Resolver computes the effective unit price for a product or variant at a
// point in time. Among the rows that apply, the most recently created wins.
type Resolver struct {
	Store Store
	Now   func() time.Time // defaults to time.Now UTC
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// ActivePrice returns the winning price row, or nil when no configured row
// applies. Variant-targeted rows take precedence over product-targeted ones.
func (r *Resolver) ActivePrice(ctx context.Context, tenantID, productID, variantID string) (*Price, error) {
	at := r.now()
	if variantID != "" {
		rows, err := r.Store.ListForVariant(ctx, tenantID, variantID)
		if err != nil {
			return nil, err
		}
		if best := pickActive(rows, at); best != nil {
			return best, nil
		}
	}
	if productID != "" {
		rows, err := r.Store.ListForProduct(ctx, tenantID, productID)
		if err != nil {
			return nil, err
		}
		if best := pickActive(rows, at); best != nil {
			return best, nil
		}
	}
	return nil, nil
}

// ActivePriceCents resolves to cents, falling back to the caller's default
// (variant price or product base price). ErrNoPrice when neither exists.
func (r *Resolver) ActivePriceCents(ctx context.Context, tenantID, productID, variantID string, fallback *int64) (int64, error) {
	p, err := r.ActivePrice(ctx, tenantID, productID, variantID)
	if err != nil {
		return 0, err
	}
	if p != nil {
		return p.PriceCents, nil
	}
	if fallback != nil {
		return *fallback, nil
	}
	return 0, ErrNoPrice
}

// ProductPrices returns every product-targeted row that applies right now,
// newest first.
func (r *Resolver) ProductPrices(ctx context.Context, tenantID, productID string) ([]Price, error) {
	rows, err := r.Store.ListForProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	at := r.now()
	var out []Price
	for _, p := range rows {
		if p.ActiveAt(at) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// IsActive re-evaluates a single row against the current instant.
func (r *Resolver) IsActive(ctx context.Context, tenantID, priceID string) (bool, error) {
	p, err := r.Store.Get(ctx, tenantID, priceID)
	if err != nil {
		return false, err
	}
	return p.ActiveAt(r.now()), nil
}

func pickActive(rows []Price, at time.Time) *Price {
	var best *Price
	for i := range rows {
		p := &rows[i]
		if !p.ActiveAt(at) {
			continue
		}
		if best == nil || p.CreatedAt.After(best.CreatedAt) ||
			(p.CreatedAt.Equal(best.CreatedAt) && p.ID > best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}
