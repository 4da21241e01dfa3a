package adapter

import (
	"context"
	"errors"
)

// ErrAlreadyEnrolled is returned by Enroll when the platform reports the
// user already owns the product. Callers treat it as success: redelivered
// webhooks and manual retries legitimately re-attempt finished enrollments.
var ErrAlreadyEnrolled = errors.New("user already owns this product")

// PlatformUser is the learning platform's view of an account.
type PlatformUser struct {
	ID    string
	Email string
	Name  string
}

type EnrollRequest struct {
	UserID      string // platform user id
	ProductID   string // enrollment id of the purchased plan
	ProductType string // "course" | "bundle"
	Price       int64  // original per-item price, smallest currency unit
}

// LearningPlatform is the hex port for the external learning platform. The
// provider is rate limited; implementations are wrapped by a limiter
// decorator rather than sleeping in business logic.
type LearningPlatform interface {
	// FindUserByEmail returns domain.ErrNotFound when no account exists.
	FindUserByEmail(ctx context.Context, email string) (*PlatformUser, error)
	CreateUser(ctx context.Context, email, name string) (*PlatformUser, error)
	Enroll(ctx context.Context, req EnrollRequest) error
}
