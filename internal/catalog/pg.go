package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) CreateProduct(ctx context.Context, p *Product) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products (id, tenant_id, name, description, sku, base_price_cents, currency, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.TenantID, p.Name, p.Description, p.SKU, p.BasePriceCents, p.Currency, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *Repo) GetProduct(ctx context.Context, tenantID, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, tenant_id, name, description, sku, base_price_cents, currency, is_active, created_at, updated_at
		FROM products WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.SKU, &p.BasePriceCents, &p.Currency, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListProducts(ctx context.Context, tenantID string) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, tenant_id, name, description, sku, base_price_cents, currency, is_active, created_at, updated_at
		FROM products WHERE tenant_id=$1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.SKU, &p.BasePriceCents, &p.Currency, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateProduct(ctx context.Context, p *Product) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := r.DB.Exec(ctx, `
		UPDATE products SET name=$3, description=$4, sku=$5, base_price_cents=$6, currency=$7, is_active=$8, updated_at=$9
		WHERE tenant_id=$1 AND id=$2`,
		p.TenantID, p.ID, p.Name, p.Description, p.SKU, p.BasePriceCents, p.Currency, p.IsActive, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) CreateVariant(ctx context.Context, v *Variant) error {
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now
	if v.Options == nil {
		v.Options = Options{}
	}
	opts, err := json.Marshal(v.Options)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO product_variants (id, tenant_id, product_id, sku, options, price_cents, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		v.ID, v.TenantID, v.ProductID, v.SKU, opts, v.PriceCents, v.IsActive, v.CreatedAt, v.UpdatedAt)
	return err
}

func (r *Repo) GetVariant(ctx context.Context, tenantID, id string) (*Variant, error) {
	var (
		v   Variant
		raw []byte
	)
	err := r.DB.QueryRow(ctx, `
		SELECT id, tenant_id, product_id, sku, options, price_cents, is_active, created_at, updated_at
		FROM product_variants WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&v.ID, &v.TenantID, &v.ProductID, &v.SKU, &raw, &v.PriceCents, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &v.Options); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

func (r *Repo) ListVariants(ctx context.Context, tenantID, productID string) ([]Variant, error) {
	q := `
		SELECT id, tenant_id, product_id, sku, options, price_cents, is_active, created_at, updated_at
		FROM product_variants WHERE tenant_id=$1 ORDER BY created_at DESC`
	args := []any{tenantID}
	if productID != "" {
		q = `
		SELECT id, tenant_id, product_id, sku, options, price_cents, is_active, created_at, updated_at
		FROM product_variants WHERE tenant_id=$1 AND product_id=$2 ORDER BY created_at DESC`
		args = append(args, productID)
	}
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Variant
	for rows.Next() {
		var (
			v   Variant
			raw []byte
		)
		if err := rows.Scan(&v.ID, &v.TenantID, &v.ProductID, &v.SKU, &raw, &v.PriceCents, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &v.Options); err != nil {
				return nil, err
			}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
