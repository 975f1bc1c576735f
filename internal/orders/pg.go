package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoplane/shoplane/internal/catalog"
	"github.com/shoplane/shoplane/internal/inventory"
)

type Repo struct{ DB *pgxpool.Pool }

const orderCols = `id, tenant_id, order_number, COALESCE(user_id,''), COALESCE(session_id,''), COALESCE(customer_email,''), status,
	subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents, currency,
	COALESCE(tracking_number,''), customer_notes, internal_notes,
	paid_at, shipped_at, delivered_at, cancelled_at, created_at, updated_at`

const itemCols = `id, order_id, product_id, COALESCE(variant_id,''), name_snapshot, sku_snapshot,
	options_snapshot, unit_price_cents, quantity, subtotal_cents, created_at`

func (r *Repo) CreateWithItems(ctx context.Context, o *Order, reserve bool) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, tenant_id, order_number, user_id, session_id, customer_email, status,
			subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents, currency,
			customer_notes, created_at, updated_at)
		VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''),NULLIF($6,''),$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.TenantID, o.OrderNumber, o.UserID, o.SessionID, o.CustomerEmail, string(o.Status),
		o.SubtotalCents, o.DiscountCents, o.ShippingCents, o.TaxCents, o.TotalCents, o.Currency,
		o.CustomerNotes, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_orders_open_cart" {
			return ErrCartExists
		}
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		it.CreatedAt = now
		if err := insertItem(ctx, tx, o.TenantID, it); err != nil {
			return err
		}
	}

	if reserve {
		if err := reserveItems(ctx, tx, o.TenantID, o.Items); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, tenantID, id string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := listItems(ctx, r.DB, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *Repo) GetBySession(ctx context.Context, tenantID, sessionID string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE tenant_id=$1 AND session_id=$2 AND status='cart'`, tenantID, sessionID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := listItems(ctx, r.DB, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *Repo) List(ctx context.Context, tenantID string, f ListFilter) ([]Order, error) {
	q := `SELECT ` + orderCols + ` FROM orders WHERE tenant_id=$1`
	args := []any{tenantID}
	if f.Status != "" {
		args = append(args, string(f.Status))
		q += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	args = append(args, f.Limit)
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))
	args = append(args, f.Offset)
	q += fmt.Sprintf(` OFFSET $%d`, len(args))

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repo) Transition(ctx context.Context, tenantID, id string, to Status, opts TransitionOpts) (*Order, Status, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var fromStr string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id).Scan(&fromStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	from := Status(fromStr)
	if !CanTransition(from, to) {
		return nil, "", &TransitionError{From: from, To: to}
	}

	items, err := listItems(ctx, tx, id)
	if err != nil {
		return nil, "", err
	}

	switch {
	case from == StatusCart && to == StatusPendingPayment:
		err = reserveItems(ctx, tx, tenantID, items)
	case from == StatusPendingPayment && to == StatusPaid:
		err = consumeItems(ctx, tx, tenantID, items)
	case from == StatusPendingPayment && (to == StatusCancelled || to == StatusRefunded):
		err = releaseItems(ctx, tx, tenantID, items)
	}
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		UPDATE orders SET status=$3,
			tracking_number = COALESCE(NULLIF($4,''), tracking_number),
			internal_notes  = COALESCE(NULLIF($5,''), internal_notes),
			paid_at      = CASE WHEN $3 = 'paid' THEN $6 ELSE paid_at END,
			shipped_at   = CASE WHEN $3 = 'shipped' THEN $6 ELSE shipped_at END,
			delivered_at = CASE WHEN $3 = 'delivered' THEN $6 ELSE delivered_at END,
			cancelled_at = CASE WHEN $3 IN ('cancelled','refunded') THEN $6 ELSE cancelled_at END,
			updated_at   = $6
		WHERE tenant_id=$1 AND id=$2`,
		tenantID, id, string(to), opts.TrackingNumber, opts.InternalNotes, now)
	if err != nil {
		return nil, "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, "", err
	}

	o, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return nil, "", err
	}
	return o, from, nil
}

func (r *Repo) AddItem(ctx context.Context, tenantID, orderID string, it *Item) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockCart(ctx, tx, tenantID, orderID); err != nil {
		return nil, err
	}

	// merge into an existing line with the same product+variant, keeping the
	// unit price that line was created with
	tag, err := tx.Exec(ctx, `
		UPDATE order_items
		SET quantity = quantity + $3, subtotal_cents = unit_price_cents * (quantity + $3)
		WHERE order_id=$1 AND product_id=$2 AND variant_id IS NOT DISTINCT FROM NULLIF($4,'')`,
		orderID, it.ProductID, it.Quantity, it.VariantID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		it.OrderID = orderID
		it.CreatedAt = time.Now().UTC()
		if err := insertItem(ctx, tx, tenantID, it); err != nil {
			return nil, err
		}
	}

	if err := recomputeTotals(ctx, tx, tenantID, orderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, tenantID, orderID)
}

func (r *Repo) UpdateItemQuantity(ctx context.Context, tenantID, orderID, itemID string, qty int64) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockCart(ctx, tx, tenantID, orderID); err != nil {
		return nil, err
	}

	var tag pgconn.CommandTag
	if qty == 0 {
		tag, err = tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1 AND id=$2`, orderID, itemID)
	} else {
		tag, err = tx.Exec(ctx, `
			UPDATE order_items SET quantity=$3, subtotal_cents = unit_price_cents * $3
			WHERE order_id=$1 AND id=$2`, orderID, itemID, qty)
	}
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrItemNotFound
	}

	if err := recomputeTotals(ctx, tx, tenantID, orderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, tenantID, orderID)
}

func (r *Repo) Delete(ctx context.Context, tenantID, orderID string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE tenant_id=$1 AND id=$2 AND status='cart'`, tenantID, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- tx helpers ----

func lockCart(ctx context.Context, tx pgx.Tx, tenantID, orderID string) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, orderID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if Status(status) != StatusCart {
		return ErrNotEditable
	}
	return nil
}

func insertItem(ctx context.Context, tx pgx.Tx, tenantID string, it *Item) error {
	if it.OptionsSnapshot == nil {
		it.OptionsSnapshot = catalog.Options{}
	}
	opts, err := json.Marshal(it.OptionsSnapshot)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO order_items (id, tenant_id, order_id, product_id, variant_id, name_snapshot,
			sku_snapshot, options_snapshot, unit_price_cents, quantity, subtotal_cents, created_at)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8,$9,$10,$11,$12)`,
		it.ID, tenantID, it.OrderID, it.ProductID, it.VariantID, it.NameSnapshot,
		it.SKUSnapshot, opts, it.UnitPriceCents, it.Quantity, it.SubtotalCents, it.CreatedAt)
	return err
}

func recomputeTotals(ctx context.Context, tx pgx.Tx, tenantID, orderID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders o SET
			subtotal_cents = s.sum,
			total_cents    = s.sum + o.shipping_cents - o.discount_cents,
			updated_at     = now()
		FROM (SELECT COALESCE(SUM(subtotal_cents),0) AS sum FROM order_items WHERE order_id=$2) s
		WHERE o.tenant_id=$1 AND o.id=$2`, tenantID, orderID)
	return err
}

// reserveItems runs the conditional reserve for every variant line. Any
// shortfall fails the call and the caller's rollback undoes the lines already
// reserved.
func reserveItems(ctx context.Context, tx pgx.Tx, tenantID string, items []Item) error {
	var short []Shortfall
	for _, it := range items {
		if it.VariantID == "" {
			continue
		}
		tag, err := tx.Exec(ctx, `
			UPDATE inventory
			SET stock_reserved = stock_reserved + $4, updated_at = now()
			WHERE tenant_id=$1 AND variant_id=$2 AND warehouse_code=$3
			  AND stock_on_hand - stock_reserved >= $4`,
			tenantID, it.VariantID, inventory.DefaultWarehouse, it.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var avail int64
			err := tx.QueryRow(ctx, `
				SELECT stock_on_hand - stock_reserved FROM inventory
				WHERE tenant_id=$1 AND variant_id=$2 AND warehouse_code=$3`,
				tenantID, it.VariantID, inventory.DefaultWarehouse).Scan(&avail)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			short = append(short, Shortfall{
				VariantID:     it.VariantID,
				WarehouseCode: inventory.DefaultWarehouse,
				Requested:     it.Quantity,
				Available:     avail,
			})
		}
	}
	if len(short) > 0 {
		return &StockShortfallError{Shortfalls: short}
	}
	return nil
}

func consumeItems(ctx context.Context, tx pgx.Tx, tenantID string, items []Item) error {
	var short []Shortfall
	for _, it := range items {
		if it.VariantID == "" {
			continue
		}
		tag, err := tx.Exec(ctx, `
			UPDATE inventory
			SET stock_reserved = stock_reserved - $4, stock_on_hand = stock_on_hand - $4, updated_at = now()
			WHERE tenant_id=$1 AND variant_id=$2 AND warehouse_code=$3
			  AND stock_reserved >= $4 AND stock_on_hand >= $4`,
			tenantID, it.VariantID, inventory.DefaultWarehouse, it.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var reserved int64
			err := tx.QueryRow(ctx, `
				SELECT LEAST(stock_reserved, stock_on_hand) FROM inventory
				WHERE tenant_id=$1 AND variant_id=$2 AND warehouse_code=$3`,
				tenantID, it.VariantID, inventory.DefaultWarehouse).Scan(&reserved)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			short = append(short, Shortfall{
				VariantID:     it.VariantID,
				WarehouseCode: inventory.DefaultWarehouse,
				Requested:     it.Quantity,
				Available:     reserved,
			})
		}
	}
	if len(short) > 0 {
		return &StockShortfallError{Shortfalls: short}
	}
	return nil
}

// releaseItems returns reserved stock. Missing rows are skipped: a cancel must
// not fail because a line was never stocked.
func releaseItems(ctx context.Context, tx pgx.Tx, tenantID string, items []Item) error {
	for _, it := range items {
		if it.VariantID == "" {
			continue
		}
		_, err := tx.Exec(ctx, `
			UPDATE inventory
			SET stock_reserved = GREATEST(0, stock_reserved - $4), updated_at = now()
			WHERE tenant_id=$1 AND variant_id=$2 AND warehouse_code=$3`,
			tenantID, it.VariantID, inventory.DefaultWarehouse, it.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listItems(ctx context.Context, q queryer, orderID string) ([]Item, error) {
	rows, err := q.Query(ctx, `SELECT `+itemCols+` FROM order_items WHERE order_id=$1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var (
			it  Item
			raw []byte
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.NameSnapshot,
			&it.SKUSnapshot, &raw, &it.UnitPriceCents, &it.Quantity, &it.SubtotalCents, &it.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &it.OptionsSnapshot); err != nil {
				return nil, err
			}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.TenantID, &o.OrderNumber, &o.UserID, &o.SessionID, &o.CustomerEmail, &status,
		&o.SubtotalCents, &o.DiscountCents, &o.ShippingCents, &o.TaxCents, &o.TotalCents, &o.Currency,
		&o.TrackingNumber, &o.CustomerNotes, &o.InternalNotes,
		&o.PaidAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}
