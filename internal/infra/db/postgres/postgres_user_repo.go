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

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (id, provider_id, email, full_name, learnworlds_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (provider_id) DO UPDATE SET
  email          = EXCLUDED.email,
  full_name      = EXCLUDED.full_name,
  learnworlds_id = EXCLUDED.learnworlds_id,
  updated_at     = EXCLUDED.updated_at;
`
	if _, err := ex.Exec(ctx, q, u.ID, u.ProviderID, u.Email, u.FullName, u.LearnworldsID, u.CreatedAt, u.UpdatedAt); err != nil {
		return fmt.Errorf("Save user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) FindByProviderID(ctx context.Context, tx repository.Tx, providerID string) (*model.User, error) {
	return r.findOne(ctx, tx, `SELECT id, provider_id, email, full_name, learnworlds_id, created_at, updated_at FROM users WHERE provider_id=$1;`, providerID)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return r.findOne(ctx, tx, `SELECT id, provider_id, email, full_name, learnworlds_id, created_at, updated_at FROM users WHERE id=$1;`, id)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg any) (*model.User, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := ex.QueryRow(ctx, q, arg).Scan(&u.ID, &u.ProviderID, &u.Email, &u.FullName, &u.LearnworldsID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
