package payments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentCols = `id, tenant_id, order_id, amount_cents, currency, method, status, COALESCE(provider_ref, ''), created_at, updated_at`

// Repo is the pgx-backed payment store.
type Repo struct {
	DB *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{DB: db} }

func (r *Repo) Create(ctx context.Context, p *Payment) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.DB.Exec(ctx, `
		INSERT INTO payments (id, tenant_id, order_id, amount_cents, currency, method, status, provider_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
	`, p.ID, p.TenantID, p.OrderID, p.AmountCents, p.Currency, p.Method, string(p.Status), p.ProviderRef, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *Repo) Get(ctx context.Context, tenantID, id string) (*Payment, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanPayment(row)
}

// SetStatus writes the new status with the legal from-status baked into the
// WHERE clause, then diagnoses a miss by re-reading the row.
func (r *Repo) SetStatus(ctx context.Context, tenantID, id string, to Status, providerRef string) (*Payment, Status, error) {
	from := fromFor(to)
	if from == "" {
		cur, err := r.Get(ctx, tenantID, id)
		if err != nil {
			return nil, "", err
		}
		return nil, "", &TransitionError{From: cur.Status, To: to}
	}
	row := r.DB.QueryRow(ctx, `
		UPDATE payments
		SET status = $1, provider_ref = COALESCE(NULLIF($2, ''), provider_ref), updated_at = $3
		WHERE tenant_id = $4 AND id = $5 AND status = $6
		RETURNING `+paymentCols,
		string(to), providerRef, time.Now().UTC(), tenantID, id, string(from))
	p, err := scanPayment(row)
	if errors.Is(err, ErrNotFound) {
		cur, gerr := r.Get(ctx, tenantID, id)
		if gerr != nil {
			return nil, "", gerr
		}
		return nil, "", &TransitionError{From: cur.Status, To: to}
	}
	if err != nil {
		return nil, "", err
	}
	return p, from, nil
}

func (r *Repo) CreateRefund(ctx context.Context, rf *Refund) (*Payment, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, rf.TenantID, rf.PaymentID)
	p, err := scanPayment(row)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusSucceeded {
		return nil, ErrNotRefundable
	}
	if rf.AmountCents > p.AmountCents {
		return nil, ErrRefundExceeds
	}

	rf.OrderID = p.OrderID
	rf.CreatedAt = time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		INSERT INTO refunds (id, tenant_id, payment_id, order_id, amount_cents, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rf.ID, rf.TenantID, rf.PaymentID, rf.OrderID, rf.AmountCents, rf.Reason, rf.CreatedAt); err != nil {
		return nil, err
	}

	p.Status = StatusRefunded
	p.UpdatedAt = rf.CreatedAt
	if _, err := tx.Exec(ctx, `
		UPDATE payments SET status = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4
	`, string(StatusRefunded), p.UpdatedAt, rf.TenantID, rf.PaymentID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// fromFor maps a target status to the only status it may move from.
func fromFor(to Status) Status {
	switch to {
	case StatusSucceeded, StatusFailed:
		return StatusPending
	case StatusRefunded:
		return StatusSucceeded
	}
	return ""
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var status string
	err := row.Scan(&p.ID, &p.TenantID, &p.OrderID, &p.AmountCents, &p.Currency, &p.Method, &status, &p.ProviderRef, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	return &p, nil
}
