// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/adapter"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/logging"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// UserInfo is the authenticated caller as reported by the identity provider.
type UserInfo struct {
	ProviderID string
	Email      string
	Name       string
}

// CheckoutResult is the outcome of a checkout request. Paid carts carry a
// session id and redirect URL; all-free carts bypass the payment processor
// and are enrolled synchronously.
type CheckoutResult struct {
	SessionID     string
	URL           string
	IsFree        bool
	EnrollmentIDs []string
}

type CheckoutUseCase interface {
	// ValidateCart canonicalizes every line from the catalog, rejecting the
	// whole cart on the first mismatch. With a non-empty providerUserID it
	// additionally gates on freshly resolved ownership.
	ValidateCart(ctx context.Context, lines []model.CartLine, providerUserID string) ([]model.ProcessedLine, error)
	// CheckCart is the advisory, side-effect-free conflict probe.
	CheckCart(ctx context.Context, lines []model.CartLine, providerUserID string) (model.ConflictReport, error)
	// Checkout validates and either opens a payment session or, for a
	// zero-total cart, enrolls immediately.
	Checkout(ctx context.Context, lines []model.CartLine, user UserInfo, originURL string) (*CheckoutResult, error)
}

type checkoutUC struct {
	catalog    CatalogUseCase
	ownership  OwnershipUseCase
	enrollment EnrollmentUseCase
	gateway    adapter.PaymentGateway
	currency   string
	expiry     time.Duration
	log        *zerolog.Logger
	now        func() time.Time
}

func NewCheckoutUseCase(catalog CatalogUseCase, ownership OwnershipUseCase, enrollment EnrollmentUseCase, gateway adapter.PaymentGateway, currency string, sessionExpiry time.Duration, logger *zerolog.Logger) *checkoutUC {
	if sessionExpiry <= 0 {
		sessionExpiry = 30 * time.Minute
	}
	return &checkoutUC{
		catalog:    catalog,
		ownership:  ownership,
		enrollment: enrollment,
		gateway:    gateway,
		currency:   currency,
		expiry:     sessionExpiry,
		log:        logger,
		now:        time.Now,
	}
}

func (uc *checkoutUC) ValidateCart(ctx context.Context, lines []model.CartLine, providerUserID string) ([]model.ProcessedLine, error) {
	defer logging.TraceDuration(uc.log, "CheckoutUC.ValidateCart")()

	if len(lines) == 0 {
		return nil, domain.ErrInvalidArgument
	}

	catalogMap, err := uc.catalogMap(ctx)
	if err != nil {
		return nil, err
	}

	processed := make([]model.ProcessedLine, 0, len(lines))
	for _, line := range lines {
		product, ok := catalogMap[line.ProductID]
		if !ok {
			return nil, &domain.ValidationError{Code: domain.CodeProductNotFound, ProductID: line.ProductID}
		}
		plan, ok := product.PlanByLabel(line.PlanLabel)
		if !ok {
			return nil, &domain.ValidationError{Code: domain.CodePlanNotFound, ProductID: line.ProductID, PlanLabel: string(line.PlanLabel)}
		}
		// Price and ids are never trusted from the client; a mismatch means
		// stale or tampered cart state.
		if plan.Price != line.Price {
			return nil, &domain.ValidationError{Code: domain.CodePriceMismatch, ProductID: line.ProductID, PlanLabel: string(line.PlanLabel)}
		}
		if plan.EnrollmentID != line.EnrollmentID {
			return nil, &domain.ValidationError{Code: domain.CodeEnrollmentIDMismatch, ProductID: line.ProductID, PlanLabel: string(line.PlanLabel)}
		}
		// Applies to zero-price plans too: the processor still needs a valid
		// price object for $0 charges.
		if !plan.HasValidPriceRef() {
			return nil, &domain.ValidationError{Code: domain.CodeInvalidPriceReference, ProductID: line.ProductID, PlanLabel: string(line.PlanLabel)}
		}

		processed = append(processed, model.ProcessedLine{
			LineID:        ulid.Make().String(),
			ProductID:     product.ID,
			ProductName:   product.Name,
			PlanLabel:     plan.Label,
			Category:      plan.Category,
			Price:         plan.Price,
			EnrollmentID:  plan.EnrollmentID,
			StripePriceID: plan.StripePriceID,
			AccessURL:     plan.AccessURL,
		})
	}

	if providerUserID != "" {
		owned, err := uc.ownership.GetOwnedProductIDs(ctx, providerUserID)
		if err != nil {
			return nil, err
		}
		report := CheckCartConflicts(lines, owned, catalogMap)
		if report.HasConflicts {
			return nil, &domain.ValidationError{Code: domain.CodeAlreadyOwned, Conflicts: report.ConflictNames()}
		}
	}

	return processed, nil
}

func (uc *checkoutUC) CheckCart(ctx context.Context, lines []model.CartLine, providerUserID string) (model.ConflictReport, error) {
	defer logging.TraceDuration(uc.log, "CheckoutUC.CheckCart")()

	catalogMap, err := uc.catalogMap(ctx)
	if err != nil {
		return model.ConflictReport{}, err
	}
	owned, err := uc.ownership.GetOwnedProductIDs(ctx, providerUserID)
	if err != nil {
		return model.ConflictReport{}, err
	}
	return CheckCartConflicts(lines, owned, catalogMap), nil
}

func (uc *checkoutUC) Checkout(ctx context.Context, lines []model.CartLine, user UserInfo, originURL string) (*CheckoutResult, error) {
	defer logging.TraceDuration(uc.log, "CheckoutUC.Checkout")()

	processed, err := uc.ValidateCart(ctx, lines, user.ProviderID)
	if err != nil {
		if ve, ok := domain.AsValidationError(err); ok {
			metrics.IncCheckoutRejection(string(ve.Code))
			metrics.IncCheckoutSession("rejected")
		}
		return nil, err
	}

	order := model.NewOrder(user.ProviderID, user.Email, user.Name, processed)
	orderJSON, err := order.Encode()
	if err != nil {
		return nil, err
	}

	if order.Total() == 0 {
		return uc.checkoutFree(ctx, order, orderJSON)
	}

	sessionLines := make([]adapter.SessionLine, 0, len(processed))
	for _, l := range processed {
		sessionLines = append(sessionLines, adapter.SessionLine{PriceID: l.StripePriceID, Quantity: 1})
	}
	origin := strings.TrimRight(originURL, "/")
	session, err := uc.gateway.CreateCheckoutSession(ctx, adapter.CheckoutParams{
		Lines:             sessionLines,
		CustomerEmail:     user.Email,
		ClientReferenceID: user.ProviderID,
		SuccessURL:        origin + "/purchase/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         origin + "/cart",
		Metadata:          map[string]string{"order": orderJSON},
		ExpiresAt:         uc.now().Add(uc.expiry),
	})
	if err != nil {
		metrics.IncCheckoutSession("gateway_error")
		var ge *adapter.GatewayError
		if errors.As(err, &ge) {
			uc.log.Error().Str("kind", string(ge.Kind)).Str("code", ge.Code).Msg("checkout session creation failed")
		}
		return nil, err
	}

	metrics.IncCheckoutSession("created")
	uc.log.Info().Str("session_id", session.ID).Int("items", len(processed)).Int64("amount", order.Total()).Msg("checkout session created")
	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// checkoutFree enrolls an all-free cart immediately under a generated session
// id; no payment-processor round trip happens for a zero total.
func (uc *checkoutUC) checkoutFree(ctx context.Context, order *model.Order, orderJSON string) (*CheckoutResult, error) {
	sessionID := "free_" + ulid.Make().String()
	err := uc.enrollment.Process(ctx, SessionPayload{
		SessionID: sessionID,
		Amount:    0,
		Currency:  uc.currency,
		OrderJSON: orderJSON,
	})
	if err != nil {
		return nil, err
	}
	metrics.IncCheckoutSession("free")
	uc.log.Info().Str("session_id", sessionID).Int("items", order.ItemCount).Msg("free cart enrolled")
	return &CheckoutResult{IsFree: true, EnrollmentIDs: order.EnrollmentIDs()}, nil
}

func (uc *checkoutUC) catalogMap(ctx context.Context) (map[string]*model.Product, error) {
	products, err := uc.catalog.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*model.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m, nil
}
