package repository

import (
	"context"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
)

type UserRepository interface {
	// Save upserts on the identity provider id.
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByProviderID(ctx context.Context, tx Tx, providerID string) (*model.User, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
}
