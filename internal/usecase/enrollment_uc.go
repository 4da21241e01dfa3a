// File: internal/usecase/enrollment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/adapter"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/repository"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/logging"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/metrics"
)

// ErrInvalidPayload marks a session payload that can never be processed
// (unparseable order metadata). Callers must acknowledge such events instead
// of letting the provider redeliver them forever.
var ErrInvalidPayload = errors.New("invalid session payload")

// Compile-time check
var _ EnrollmentUseCase = (*enrollmentUC)(nil)

// SessionPayload is what the webhook layer extracts from a completed
// checkout session. OrderJSON is the metadata order document.
type SessionPayload struct {
	SessionID       string
	PaymentIntentID string
	Amount          int64
	Currency        string
	OrderJSON       string
}

type EnrollmentUseCase interface {
	// Process provisions one confirmed checkout session: upserts the user,
	// records the purchase and its items, ensures the learning-platform
	// account, and enrolls each item sequentially. A returned error means
	// nothing external happened yet and the delivery may be retried; once
	// external calls begin, per-item failures are recorded and swallowed.
	Process(ctx context.Context, p SessionPayload) error
	ListByUser(ctx context.Context, providerUserID string) ([]*model.Enrollment, error)
	// ExpireDue flips overdue enrollments to expired (sweep worker).
	ExpireDue(ctx context.Context) (int, error)
}

type enrollmentUC struct {
	users       UserUseCase
	purchases   repository.PurchaseRepository
	enrollments repository.EnrollmentRepository
	platform    adapter.LearningPlatform
	log         *zerolog.Logger
	now         func() time.Time
}

func NewEnrollmentUseCase(users UserUseCase, purchases repository.PurchaseRepository, enrollments repository.EnrollmentRepository, platform adapter.LearningPlatform, logger *zerolog.Logger) *enrollmentUC {
	return &enrollmentUC{
		users:       users,
		purchases:   purchases,
		enrollments: enrollments,
		platform:    platform,
		log:         logger,
		now:         time.Now,
	}
}

func (uc *enrollmentUC) Process(ctx context.Context, p SessionPayload) error {
	defer logging.TraceDuration(uc.log, "EnrollmentUC.Process")()
	log := uc.log.With().Str("session_id", p.SessionID).Logger()

	// 1. Decode the order document. A parse failure is permanent.
	order, err := model.DecodeOrder(p.OrderJSON)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	// 2. Local user row, idempotent on the provider id.
	user, err := uc.users.EnsureUser(ctx, order.UserID, order.Email, order.Name)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	// 3. Purchase creation is the idempotency boundary: the session id is
	// UNIQUE, so a redelivered webhook lands on the existing row. A purchase
	// that already completed short-circuits everything — the external calls
	// below are not idempotent and must not re-run.
	purchase := model.NewPurchase(user.ID, p.SessionID, p.PaymentIntentID, p.Amount, p.Currency)
	created, err := uc.purchases.CreatePending(ctx, repository.NoTX, purchase)
	if err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}
	if !created {
		existing, err := uc.purchases.FindBySessionID(ctx, repository.NoTX, p.SessionID)
		if err != nil {
			return fmt.Errorf("find purchase by session: %w", err)
		}
		if existing.Status == model.PurchaseStatusCompleted {
			metrics.IncPurchase("duplicate_session")
			log.Info().Msg("purchase already completed for session; skipping redelivered event")
			return nil
		}
		// A prior delivery crashed mid-flight; resume against its row.
		purchase = existing
	}

	// 4. One item per order line. A prior attempt may have written only some
	// of them before failing, so reconcile against what exists by line id
	// instead of treating any non-empty item set as complete.
	items, err := uc.purchases.ListItems(ctx, repository.NoTX, purchase.ID)
	if err != nil {
		return fmt.Errorf("list purchase items: %w", err)
	}
	written := make(map[string]struct{}, len(items))
	for _, it := range items {
		written[it.LineID] = struct{}{}
	}
	for _, line := range order.Lines {
		if _, ok := written[line.LineID]; ok {
			continue
		}
		item := model.NewPurchaseItem(purchase.ID, line)
		if err := uc.purchases.AddItem(ctx, repository.NoTX, item); err != nil {
			return fmt.Errorf("add purchase item: %w", err)
		}
		items = append(items, item)
	}

	// From here on the function always completes: failures are recorded per
	// item and the purchase still reaches its terminal state.
	platformUser, perr := uc.ensurePlatformUser(ctx, user, order)
	if perr != nil {
		log.Error().Err(perr).Msg("learning platform user unavailable; all items recorded as failed")
	} else {
		uc.enrollItems(ctx, &log, user, platformUser, items)
	}

	// Terminal state regardless of per-item outcomes. Partial fulfillment
	// is an operational follow-up, not a retryable error.
	now := uc.now()
	if err := uc.purchases.MarkCompleted(ctx, repository.NoTX, purchase.ID, now); err != nil {
		log.Error().Err(err).Msg("failed to mark purchase completed")
	} else {
		metrics.IncPurchase("completed")
	}
	return nil
}

// ensurePlatformUser looks the account up by email and creates it when
// absent, persisting the external id locally.
func (uc *enrollmentUC) ensurePlatformUser(ctx context.Context, user *model.User, order *model.Order) (*adapter.PlatformUser, error) {
	if user.LearnworldsID != "" {
		return &adapter.PlatformUser{ID: user.LearnworldsID, Email: user.Email, Name: user.FullName}, nil
	}

	pu, err := uc.platform.FindUserByEmail(ctx, order.Email)
	if errors.Is(err, domain.ErrNotFound) {
		pu, err = uc.platform.CreateUser(ctx, order.Email, order.Name)
	}
	if err != nil {
		return nil, err
	}
	if err := uc.users.SetLearnworldsID(ctx, user, pu.ID); err != nil {
		// Non-fatal: the id can be re-resolved by email next time.
		uc.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to persist learning platform id")
	}
	return pu, nil
}

// enrollItems runs the per-item enrollments strictly sequentially; the
// platform client is rate limited underneath. One item's failure never
// aborts the remaining items.
func (uc *enrollmentUC) enrollItems(ctx context.Context, log *zerolog.Logger, user *model.User, platformUser *adapter.PlatformUser, items []*model.PurchaseItem) {
	for _, item := range items {
		err := uc.platform.Enroll(ctx, adapter.EnrollRequest{
			UserID:      platformUser.ID,
			ProductID:   item.EnrollmentID,
			ProductType: string(item.Category),
			Price:       item.Price,
		})
		switch {
		case err == nil:
			metrics.IncEnrollment("enrolled")
		case errors.Is(err, adapter.ErrAlreadyEnrolled):
			// Redelivered webhooks and manual retries re-attempt finished
			// enrollments; the platform saying "already owned" is success.
			metrics.IncEnrollment("already_owned")
			log.Info().Str("enrollment_id", item.EnrollmentID).Msg("already enrolled; treating as success")
		default:
			metrics.IncEnrollment("failed")
			log.Error().Err(err).Str("enrollment_id", item.EnrollmentID).Str("product_id", item.ProductID).Msg("enrollment failed; continuing with remaining items")
			continue
		}

		enrollment := model.NewEnrollment(user.ID, item, uc.now())
		if err := uc.enrollments.Save(ctx, repository.NoTX, enrollment); err != nil {
			log.Error().Err(err).Str("product_id", item.ProductID).Msg("failed to record enrollment")
		}
	}
}

func (uc *enrollmentUC) ListByUser(ctx context.Context, providerUserID string) ([]*model.Enrollment, error) {
	user, err := uc.users.GetByProviderID(ctx, providerUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return uc.enrollments.ListByUser(ctx, repository.NoTX, user.ID)
}

func (uc *enrollmentUC) ExpireDue(ctx context.Context) (int, error) {
	n, err := uc.enrollments.ExpireDue(ctx, repository.NoTX, uc.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddEnrollmentsExpired(n)
	}
	return n, nil
}
