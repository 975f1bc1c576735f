package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const recordCols = `id, tenant_id, variant_id, warehouse_code, stock_on_hand, stock_reserved, min_stock_level, updated_at`

func (r *Repo) Initialize(ctx context.Context, rec *Record) (*Record, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO inventory (id, tenant_id, variant_id, warehouse_code, stock_on_hand, stock_reserved, min_stock_level, updated_at)
		VALUES ($1,$2,$3,$4,$5,0,$6,now())
		ON CONFLICT (tenant_id, variant_id, warehouse_code) DO UPDATE
		SET stock_on_hand   = GREATEST(inventory.stock_reserved, EXCLUDED.stock_on_hand),
		    min_stock_level = EXCLUDED.min_stock_level,
		    updated_at      = now()
		RETURNING `+recordCols,
		rec.ID, rec.TenantID, rec.VariantID, rec.WarehouseCode, rec.StockOnHand, rec.MinStockLevel)
	return scanRecord(row)
}

func (r *Repo) Get(ctx context.Context, tenantID, variantID, warehouse string) (*Record, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+recordCols+` FROM inventory
		WHERE tenant_id=$1 AND variant_id=$2 AND warehouse_code=$3`,
		tenantID, variantID, warehouse)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *Repo) Reserve(ctx context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE inventory
		SET stock_reserved = stock_reserved + $4, updated_at = now()
		WHERE tenant_id=$1 AND variant_id=$2 AND warehouse_code=$3
		  AND stock_on_hand - stock_reserved >= $4
		RETURNING `+recordCols,
		tenantID, variantID, warehouse, qty)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// guard failed: tell a missing row apart from a shortfall
		if _, gerr := r.Get(ctx, tenantID, variantID, warehouse); gerr != nil {
			return nil, gerr
		}
		return nil, ErrInsufficientStock
	}
	return rec, err
}

func (r *Repo) Release(ctx context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE inventory
		SET stock_reserved = GREATEST(0, stock_reserved - $4), updated_at = now()
		WHERE tenant_id=$1 AND variant_id=$2 AND warehouse_code=$3
		RETURNING `+recordCols,
		tenantID, variantID, warehouse, qty)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *Repo) ConsumeReserved(ctx context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE inventory
		SET stock_reserved = stock_reserved - $4, stock_on_hand = stock_on_hand - $4, updated_at = now()
		WHERE tenant_id=$1 AND variant_id=$2 AND warehouse_code=$3
		  AND stock_reserved >= $4 AND stock_on_hand >= $4
		RETURNING `+recordCols,
		tenantID, variantID, warehouse, qty)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, gerr := r.Get(ctx, tenantID, variantID, warehouse); gerr != nil {
			return nil, gerr
		}
		return nil, ErrInsufficientStock
	}
	return rec, err
}

func (r *Repo) Adjust(ctx context.Context, tenantID, variantID, warehouse string, delta int64) (*Record, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE inventory
		SET stock_on_hand = GREATEST(stock_reserved, stock_on_hand + $4), updated_at = now()
		WHERE tenant_id=$1 AND variant_id=$2 AND warehouse_code=$3
		RETURNING `+recordCols,
		tenantID, variantID, warehouse, delta)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *Repo) LowStock(ctx context.Context, tenantID, warehouse string) ([]Record, error) {
	q := `
		SELECT ` + recordCols + ` FROM inventory
		WHERE tenant_id=$1 AND stock_on_hand <= min_stock_level ORDER BY variant_id`
	args := []any{tenantID}
	if warehouse != "" {
		q = `
		SELECT ` + recordCols + ` FROM inventory
		WHERE tenant_id=$1 AND warehouse_code=$2 AND stock_on_hand <= min_stock_level ORDER BY variant_id`
		args = append(args, warehouse)
	}
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.TenantID, &rec.VariantID, &rec.WarehouseCode,
		&rec.StockOnHand, &rec.StockReserved, &rec.MinStockLevel, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
