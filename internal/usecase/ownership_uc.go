package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/repository"
)

// Compile-time check
var _ OwnershipUseCase = (*ownershipUC)(nil)

// OwnershipUseCase resolves which product ids a shopper currently holds a
// valid claim to: active enrollment, completed parent purchase, unexpired.
type OwnershipUseCase interface {
	GetOwnedProductIDs(ctx context.Context, providerUserID string) (map[string]struct{}, error)
}

type ownershipUC struct {
	users       repository.UserRepository
	enrollments repository.EnrollmentRepository
	log         *zerolog.Logger
	now         func() time.Time
}

func NewOwnershipUseCase(users repository.UserRepository, enrollments repository.EnrollmentRepository, logger *zerolog.Logger) *ownershipUC {
	return &ownershipUC{users: users, enrollments: enrollments, log: logger, now: time.Now}
}

func (uc *ownershipUC) GetOwnedProductIDs(ctx context.Context, providerUserID string) (map[string]struct{}, error) {
	user, err := uc.users.FindByProviderID(ctx, repository.NoTX, providerUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// A brand-new signed-in user legitimately owns nothing yet.
			return map[string]struct{}{}, nil
		}
		return nil, err
	}

	ids, err := uc.enrollments.ListOwnedProductIDs(ctx, repository.NoTX, user.ID, uc.now())
	if err != nil {
		return nil, err
	}
	owned := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		owned[id] = struct{}{}
	}
	return owned, nil
}
