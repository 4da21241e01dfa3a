package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*PostgresPurchaseRepo)(nil)

type PostgresPurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPurchaseRepo(pool *pgxpool.Pool) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{pool: pool}
}

// CreatePending relies on the UNIQUE session_id constraint: a redelivered
// webhook inserts nothing and is reported via created=false.
func (r *PostgresPurchaseRepo) CreatePending(ctx context.Context, tx repository.Tx, p *model.Purchase) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	const q = `
INSERT INTO purchases (id, user_id, session_id, payment_intent_id, amount, currency, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (session_id) DO NOTHING;
`
	ct, err := ex.Exec(ctx, q, p.ID, p.UserID, p.SessionID, p.PaymentIntentID, p.Amount, p.Currency, p.Status, p.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("CreatePending purchase: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *PostgresPurchaseRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Purchase, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT id, user_id, session_id, payment_intent_id, amount, currency, status, created_at, completed_at
  FROM purchases
 WHERE session_id = $1;
`
	var p model.Purchase
	if err := ex.QueryRow(ctx, q, sessionID).Scan(&p.ID, &p.UserID, &p.SessionID, &p.PaymentIntentID, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.CompletedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindBySessionID purchase: %w", err)
	}
	return &p, nil
}

func (r *PostgresPurchaseRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
UPDATE purchases
   SET status = $2, completed_at = $3
 WHERE id = $1 AND status <> $2;
`
	if _, err := ex.Exec(ctx, q, id, model.PurchaseStatusCompleted, at); err != nil {
		return fmt.Errorf("MarkCompleted purchase: %w", err)
	}
	return nil
}

// AddItem is idempotent per (purchase_id, line_id) so a redelivered order can
// re-insert its lines without tripping over rows a failed attempt left behind.
func (r *PostgresPurchaseRepo) AddItem(ctx context.Context, tx repository.Tx, item *model.PurchaseItem) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO purchase_items (id, purchase_id, line_id, product_id, product_name, plan_label, category, price, enrollment_id, access_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (purchase_id, line_id) DO NOTHING;
`
	if _, err := ex.Exec(ctx, q, item.ID, item.PurchaseID, item.LineID, item.ProductID, item.ProductName, item.PlanLabel, item.Category, item.Price, item.EnrollmentID, item.AccessURL, item.CreatedAt); err != nil {
		return fmt.Errorf("AddItem purchase item: %w", err)
	}
	return nil
}

func (r *PostgresPurchaseRepo) ListItems(ctx context.Context, tx repository.Tx, purchaseID string) ([]*model.PurchaseItem, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT id, purchase_id, line_id, product_id, product_name, plan_label, category, price, enrollment_id, access_url, created_at
  FROM purchase_items
 WHERE purchase_id = $1
 ORDER BY created_at;
`
	rows, err := ex.Query(ctx, q, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("ListItems: %w", err)
	}
	defer rows.Close()
	var out []*model.PurchaseItem
	for rows.Next() {
		var it model.PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.LineID, &it.ProductID, &it.ProductName, &it.PlanLabel, &it.Category, &it.Price, &it.EnrollmentID, &it.AccessURL, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (r *PostgresPurchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Purchase, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT id, user_id, session_id, payment_intent_id, amount, currency, status, created_at, completed_at
  FROM purchases
 WHERE user_id = $1
 ORDER BY created_at DESC;
`
	rows, err := ex.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByUser purchases: %w", err)
	}
	defer rows.Close()
	var out []*model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.SessionID, &p.PaymentIntentID, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
