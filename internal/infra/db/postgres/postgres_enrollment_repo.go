package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/repository"
)

var _ repository.EnrollmentRepository = (*PostgresEnrollmentRepo)(nil)

type PostgresEnrollmentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresEnrollmentRepo(pool *pgxpool.Pool) *PostgresEnrollmentRepo {
	return &PostgresEnrollmentRepo{pool: pool}
}

// Save is idempotent per purchase item: a retried pipeline that re-runs an
// already-granted item inserts nothing.
func (r *PostgresEnrollmentRepo) Save(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO enrollments (id, user_id, purchase_item_id, product_id, product_name, access_url, plan_label, external_id, status, enrolled_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (purchase_item_id) DO NOTHING;
`
	if _, err := ex.Exec(ctx, q, e.ID, e.UserID, e.PurchaseItemID, e.ProductID, e.ProductName, e.AccessURL, e.PlanLabel, e.ExternalID, e.Status, e.EnrolledAt, e.ExpiresAt); err != nil {
		return fmt.Errorf("Save enrollment: %w", err)
	}
	return nil
}

func (r *PostgresEnrollmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Enrollment, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT id, user_id, purchase_item_id, product_id, product_name, access_url, plan_label, external_id, status, enrolled_at, expires_at, last_accessed_at
  FROM enrollments
 WHERE user_id = $1
 ORDER BY enrolled_at DESC;
`
	rows, err := ex.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByUser enrollments: %w", err)
	}
	defer rows.Close()
	var out []*model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.PurchaseItemID, &e.ProductID, &e.ProductName, &e.AccessURL, &e.PlanLabel, &e.ExternalID, &e.Status, &e.EnrolledAt, &e.ExpiresAt, &e.LastAccessedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *PostgresEnrollmentRepo) ListOwnedProductIDs(ctx context.Context, tx repository.Tx, userID string, now time.Time) ([]string, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT DISTINCT e.product_id
  FROM enrollments e
  JOIN purchase_items pi ON pi.id = e.purchase_item_id
  JOIN purchases p       ON p.id = pi.purchase_id
 WHERE e.user_id = $1
   AND e.status = $2
   AND p.status = $3
   AND e.expires_at > $4;
`
	rows, err := ex.Query(ctx, q, userID, model.EnrollmentStatusActive, model.PurchaseStatusCompleted, now)
	if err != nil {
		return nil, fmt.Errorf("ListOwnedProductIDs: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PostgresEnrollmentRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	const q = `
UPDATE enrollments
   SET status = $1
 WHERE status = $2 AND expires_at <= $3;
`
	ct, err := ex.Exec(ctx, q, model.EnrollmentStatusExpired, model.EnrollmentStatusActive, now)
	if err != nil {
		return 0, fmt.Errorf("ExpireDue: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
