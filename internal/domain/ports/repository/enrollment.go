package repository

import (
	"context"
	"time"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
)

type EnrollmentRepository interface {
	Save(ctx context.Context, tx Tx, e *model.Enrollment) error
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Enrollment, error)
	// ListOwnedProductIDs returns product ids the user holds a valid claim
	// to: enrollment active, parent purchase completed, expiry in the future.
	ListOwnedProductIDs(ctx context.Context, tx Tx, userID string, now time.Time) ([]string, error)
	// ExpireDue flips active enrollments past their expiry to expired and
	// returns how many rows changed.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int, error)
}
