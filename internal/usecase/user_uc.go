package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/repository"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase maintains the local projection of identity-provider users.
type UserUseCase interface {
	// EnsureUser upserts the local row for a provider user: created when
	// missing, refreshed when profile fields changed. Idempotent.
	EnsureUser(ctx context.Context, providerID, email, name string) (*model.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*model.User, error)
	// SetLearnworldsID persists the external learning-platform id once the
	// account exists there.
	SetLearnworldsID(ctx context.Context, user *model.User, externalID string) error
}

type userUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, tm: tm, log: logger}
}

func (u *userUC) EnsureUser(ctx context.Context, providerID, email, name string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.EnsureUser")()

	var user *model.User
	// Read and write as one atomic step so two concurrent webhooks for the
	// same new user cannot both insert.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		existing, err := u.users.FindByProviderID(ctx, tx, providerID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if existing != nil {
			changed := false
			if email != "" && existing.Email != email {
				existing.Email = email
				changed = true
			}
			if name != "" && existing.FullName != name {
				existing.FullName = name
				changed = true
			}
			if changed {
				existing.Touch()
				if err := u.users.Save(ctx, tx, existing); err != nil {
					return err
				}
			}
			user = existing
			return nil
		}

		nu, err := model.NewUser(providerID, email, name)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		user = nu
		return nil
	})
	return user, err
}

func (u *userUC) GetByProviderID(ctx context.Context, providerID string) (*model.User, error) {
	return u.users.FindByProviderID(ctx, repository.NoTX, providerID)
}

func (u *userUC) SetLearnworldsID(ctx context.Context, user *model.User, externalID string) error {
	if user.LearnworldsID == externalID {
		return nil
	}
	user.LearnworldsID = externalID
	user.Touch()
	return u.users.Save(ctx, repository.NoTX, user)
}
