package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const priceCols = `id, tenant_id, product_id, variant_id, price_cents, currency, label, is_active, valid_from, valid_until, created_at`

func (r *Repo) Create(ctx context.Context, p *Price) error {
	p.CreatedAt = time.Now().UTC()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO prices (id, tenant_id, product_id, variant_id, price_cents, currency, label, is_active, valid_from, valid_until, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.TenantID, p.ProductID, p.VariantID, p.PriceCents, p.Currency, p.Label, p.IsActive, p.ValidFrom, p.ValidUntil, p.CreatedAt)
	return err
}

func (r *Repo) Get(ctx context.Context, tenantID, id string) (*Price, error) {
	var p Price
	err := r.DB.QueryRow(ctx, `
		SELECT `+priceCols+` FROM prices WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&p.ID, &p.TenantID, &p.ProductID, &p.VariantID, &p.PriceCents, &p.Currency, &p.Label, &p.IsActive, &p.ValidFrom, &p.ValidUntil, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context, tenantID string) ([]Price, error) {
	return r.list(ctx, `
		SELECT `+priceCols+` FROM prices WHERE tenant_id=$1 ORDER BY created_at DESC, id DESC`, tenantID)
}

func (r *Repo) ListForProduct(ctx context.Context, tenantID, productID string) ([]Price, error) {
	return r.list(ctx, `
		SELECT `+priceCols+` FROM prices WHERE tenant_id=$1 AND product_id=$2 ORDER BY created_at DESC, id DESC`, tenantID, productID)
}

func (r *Repo) ListForVariant(ctx context.Context, tenantID, variantID string) ([]Price, error) {
	return r.list(ctx, `
		SELECT `+priceCols+` FROM prices WHERE tenant_id=$1 AND variant_id=$2 ORDER BY created_at DESC, id DESC`, tenantID, variantID)
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Price, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Price
	for rows.Next() {
		var p Price
		if err := rows.Scan(&p.ID, &p.TenantID, &p.ProductID, &p.VariantID, &p.PriceCents, &p.Currency, &p.Label, &p.IsActive, &p.ValidFrom, &p.ValidUntil, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
