package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.CatalogRepository = (*PostgresCatalogRepo)(nil)

type PostgresCatalogRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalogRepo(pool *pgxpool.Pool) *PostgresCatalogRepo {
	return &PostgresCatalogRepo{pool: pool}
}

func (r *PostgresCatalogRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const productSQL = `
SELECT id, name, description, is_bundle, created_at
  FROM products
 ORDER BY created_at;
`
	rows, err := ex.Query(ctx, productSQL)
	if err != nil {
		return nil, fmt.Errorf("ListAll products: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*model.Product)
	var out []*model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.IsBundle, &p.CreatedAt); err != nil {
			return nil, err
		}
		byID[p.ID] = &p
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachPlans(ctx, ex, byID); err != nil {
		return nil, err
	}
	if err := r.attachMembers(ctx, ex, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresCatalogRepo) FindByProductID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `
SELECT id, name, description, is_bundle, created_at
  FROM products
 WHERE id = $1;
`
	var p model.Product
	if err := ex.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Description, &p.IsBundle, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByProductID: %w", err)
	}

	byID := map[string]*model.Product{p.ID: &p}
	if err := r.attachPlans(ctx, ex, byID); err != nil {
		return nil, err
	}
	if err := r.attachMembers(ctx, ex, byID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresCatalogRepo) attachPlans(ctx context.Context, ex executor, byID map[string]*model.Product) error {
	if len(byID) == 0 {
		return nil
	}
	ids := keysOf(byID)
	const q = `
SELECT product_id, label, category, monetary, price, enrollment_id, stripe_price_id, access_url
  FROM plans
 WHERE product_id = ANY($1)
 ORDER BY product_id, label;
`
	rows, err := ex.Query(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("attach plans: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID string
		var plan model.Plan
		if err := rows.Scan(&productID, &plan.Label, &plan.Category, &plan.Monetary, &plan.Price, &plan.EnrollmentID, &plan.StripePriceID, &plan.AccessURL); err != nil {
			return err
		}
		if p, ok := byID[productID]; ok {
			p.Plans = append(p.Plans, plan)
		}
	}
	return rows.Err()
}

func (r *PostgresCatalogRepo) attachMembers(ctx context.Context, ex executor, byID map[string]*model.Product) error {
	if len(byID) == 0 {
		return nil
	}
	ids := keysOf(byID)
	const q = `
SELECT bundle_id, member_id
  FROM bundle_members
 WHERE bundle_id = ANY($1)
 ORDER BY bundle_id, position;
`
	rows, err := ex.Query(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("attach bundle members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bundleID, memberID string
		if err := rows.Scan(&bundleID, &memberID); err != nil {
			return err
		}
		if p, ok := byID[bundleID]; ok {
			p.PackageIDs = append(p.PackageIDs, memberID)
		}
	}
	return rows.Err()
}

func keysOf(m map[string]*model.Product) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
