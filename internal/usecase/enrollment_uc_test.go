package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/adapter"
)

type enrollmentFixture struct {
	uc        *enrollmentUC
	userRepo  *memUserRepo
	purchases *memPurchaseRepo
	enrolls   *memEnrollmentRepo
	platform  *fakePlatform
}

func newEnrollmentFixture() *enrollmentFixture {
	log := testLogger()
	userRepo := newMemUserRepo()
	purchases := newMemPurchaseRepo()
	enrolls := newMemEnrollmentRepo()
	platform := newFakePlatform()

	userUC := NewUserUseCase(userRepo, &mockTxManager{}, log)
	uc := NewEnrollmentUseCase(userUC, purchases, enrolls, platform, log)
	return &enrollmentFixture{uc: uc, userRepo: userRepo, purchases: purchases, enrolls: enrolls, platform: platform}
}

func orderJSON(t *testing.T, lines ...model.ProcessedLine) string {
	t.Helper()
	order := model.NewOrder("user_1", "ada@example.com", "Ada Lovelace", lines)
	raw, err := order.Encode()
	if err != nil {
		t.Fatalf("encode order: %v", err)
	}
	return raw
}

func paidLine(lineID, productID, enrollmentID string, price int64, label model.PlanLabel) model.ProcessedLine {
	return model.ProcessedLine{
		LineID:        lineID,
		ProductID:     productID,
		ProductName:   productID,
		PlanLabel:     label,
		Category:      model.CategoryCourse,
		Price:         price,
		EnrollmentID:  enrollmentID,
		StripePriceID: "price_" + lineID,
		AccessURL:     "https://school.example.com/" + productID,
	}
}

func TestProcessProvisionsPurchaseAndEnrollments(t *testing.T) {
	t.Parallel()

	fx := newEnrollmentFixture()
	payload := SessionPayload{
		SessionID:       "cs_100",
		PaymentIntentID: "pi_100",
		Amount:          24800,
		Currency:        "usd",
		OrderJSON: orderJSON(t,
			paidLine("l1", "course-a", "lw_a", 19900, model.PlanLabel6Month),
			paidLine("l2", "course-b", "lw_b", 4900, model.PlanLabel7Day),
		),
	}

	if err := fx.uc.Process(context.Background(), payload); err != nil {
		t.Fatalf("Process: %v", err)
	}

	purchase, err := fx.purchases.FindBySessionID(context.Background(), nil, "cs_100")
	if err != nil {
		t.Fatalf("find purchase: %v", err)
	}
	if purchase.Status != model.PurchaseStatusCompleted || purchase.CompletedAt == nil {
		t.Fatalf("purchase must reach its terminal state: %+v", purchase)
	}

	items, _ := fx.purchases.ListItems(context.Background(), nil, purchase.ID)
	if len(items) != 2 {
		t.Fatalf("expected two purchase items, got %d", len(items))
	}
	if fx.platform.enrollCount() != 2 {
		t.Fatalf("expected two platform enrollments, got %d", fx.platform.enrollCount())
	}
	if fx.enrolls.count() != 2 {
		t.Fatalf("expected two enrollment rows, got %d", fx.enrolls.count())
	}

	// The new platform account id is persisted on the local user.
	user, err := fx.userRepo.FindByProviderID(context.Background(), nil, "user_1")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if user.LearnworldsID == "" {
		t.Fatal("expected learning platform id persisted")
	}
}

func TestProcessIsIdempotentAcrossRedeliveries(t *testing.T) {
	t.Parallel()

	fx := newEnrollmentFixture()
	payload := SessionPayload{
		SessionID: "cs_200",
		Amount:    19900,
		Currency:  "usd",
		OrderJSON: orderJSON(t, paidLine("l1", "course-a", "lw_a", 19900, model.PlanLabel6Month)),
	}

	if err := fx.uc.Process(context.Background(), payload); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	firstEnrolls := fx.platform.enrollCount()

	// Same session id delivered again.
	if err := fx.uc.Process(context.Background(), payload); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	if fx.purchases.purchaseCount() != 1 {
		t.Fatalf("expected one purchase row, got %d", fx.purchases.purchaseCount())
	}
	if fx.platform.enrollCount() != firstEnrolls {
		t.Fatalf("redelivery must not re-enroll: %d -> %d", firstEnrolls, fx.platform.enrollCount())
	}
	if fx.enrolls.count() != 1 {
		t.Fatalf("expected one enrollment row, got %d", fx.enrolls.count())
	}
}

func TestProcessRedeliveryBackfillsMissingItems(t *testing.T) {
	t.Parallel()

	fx := newEnrollmentFixture()
	// The second item write dies, so the first delivery leaves a pending
	// purchase with one of two lines recorded.
	fx.purchases.failAddItem("l2", errors.New("connection reset"))

	payload := SessionPayload{
		SessionID: "cs_250",
		Amount:    24800,
		Currency:  "usd",
		OrderJSON: orderJSON(t,
			paidLine("l1", "course-a", "lw_a", 19900, model.PlanLabel6Month),
			paidLine("l2", "course-b", "lw_b", 4900, model.PlanLabel7Day),
		),
	}

	if err := fx.uc.Process(context.Background(), payload); err == nil {
		t.Fatal("expected the interrupted delivery to fail")
	}
	if fx.platform.enrollCount() != 0 {
		t.Fatalf("no enrollments before all items are recorded, got %d", fx.platform.enrollCount())
	}

	fx.purchases.healAddItem("l2")
	if err := fx.uc.Process(context.Background(), payload); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	purchase, err := fx.purchases.FindBySessionID(context.Background(), nil, "cs_250")
	if err != nil {
		t.Fatalf("find purchase: %v", err)
	}
	items, _ := fx.purchases.ListItems(context.Background(), nil, purchase.ID)
	if len(items) != 2 {
		t.Fatalf("redelivery must backfill the missing line, got %d items", len(items))
	}
	if fx.enrolls.count() != 2 {
		t.Fatalf("expected two enrollment rows, got %d", fx.enrolls.count())
	}
	if purchase.Status != model.PurchaseStatusCompleted {
		t.Fatalf("purchase must complete after backfill, got %s", purchase.Status)
	}
}

func TestProcessToleratesPartialEnrollmentFailure(t *testing.T) {
	t.Parallel()

	fx := newEnrollmentFixture()
	fx.platform.enrollErrs["lw_a"] = errors.New("provider 500")

	payload := SessionPayload{
		SessionID: "cs_300",
		Amount:    24800,
		Currency:  "usd",
		OrderJSON: orderJSON(t,
			paidLine("l1", "course-a", "lw_a", 19900, model.PlanLabel6Month),
			paidLine("l2", "course-b", "lw_b", 4900, model.PlanLabel7Day),
		),
	}

	if err := fx.uc.Process(context.Background(), payload); err != nil {
		t.Fatalf("Process must complete despite per-item failures: %v", err)
	}

	if fx.platform.enrollCount() != 2 {
		t.Fatalf("both items must be attempted, got %d", fx.platform.enrollCount())
	}
	if fx.enrolls.count() != 1 {
		t.Fatalf("only the successful item gets an enrollment row, got %d", fx.enrolls.count())
	}

	purchase, _ := fx.purchases.FindBySessionID(context.Background(), nil, "cs_300")
	if purchase.Status != model.PurchaseStatusCompleted {
		t.Fatalf("purchase completes unconditionally, got %s", purchase.Status)
	}
}

func TestProcessTreatsAlreadyOwnedAsSuccess(t *testing.T) {
	t.Parallel()

	fx := newEnrollmentFixture()
	fx.platform.enrollErrs["lw_a"] = adapter.ErrAlreadyEnrolled

	payload := SessionPayload{
		SessionID: "cs_400",
		Amount:    19900,
		Currency:  "usd",
		OrderJSON: orderJSON(t, paidLine("l1", "course-a", "lw_a", 19900, model.PlanLabel6Month)),
	}

	if err := fx.uc.Process(context.Background(), payload); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if fx.enrolls.count() != 1 {
		t.Fatalf("already-owned still records the grant locally, got %d rows", fx.enrolls.count())
	}
}

func TestProcessRejectsUnparseablePayloadPermanently(t *testing.T) {
	t.Parallel()

	fx := newEnrollmentFixture()
	err := fx.uc.Process(context.Background(), SessionPayload{
		SessionID: "cs_500",
		OrderJSON: "{not json",
	})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if fx.purchases.purchaseCount() != 0 || fx.platform.enrollCount() != 0 {
		t.Fatal("nothing may be written for an unparseable payload")
	}
}

func TestProcessSkipsPlatformLookupWhenIDKnown(t *testing.T) {
	t.Parallel()

	fx := newEnrollmentFixture()
	first := SessionPayload{
		SessionID: "cs_600",
		Amount:    19900,
		Currency:  "usd",
		OrderJSON: orderJSON(t, paidLine("l1", "course-a", "lw_a", 19900, model.PlanLabel6Month)),
	}
	if err := fx.uc.Process(context.Background(), first); err != nil {
		t.Fatalf("first purchase: %v", err)
	}

	// Break account creation: a second purchase must not need it because the
	// platform id is already on file.
	fx.platform.createErr = errors.New("provider down")
	delete(fx.platform.usersByMail, "ada@example.com")

	second := SessionPayload{
		SessionID: "cs_601",
		Amount:    4900,
		Currency:  "usd",
		OrderJSON: orderJSON(t, paidLine("l2", "course-b", "lw_b", 4900, model.PlanLabel7Day)),
	}
	if err := fx.uc.Process(context.Background(), second); err != nil {
		t.Fatalf("second purchase: %v", err)
	}
	if fx.enrolls.count() != 2 {
		t.Fatalf("expected two enrollment rows, got %d", fx.enrolls.count())
	}
}

func TestEnrollmentExpiryByPlan(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)

	if got := model.ExpiryFor(model.PlanLabel7Day, at); !got.Equal(at.AddDate(0, 0, 7)) {
		t.Fatalf("7day expiry: got %v", got)
	}
	if got := model.ExpiryFor(model.PlanLabel6Month, at); !got.Equal(at.AddDate(0, 6, 0)) {
		t.Fatalf("6mo expiry: got %v", got)
	}
}

func TestExpireDueFlipsOverdueEnrollments(t *testing.T) {
	t.Parallel()

	fx := newEnrollmentFixture()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fx.uc.now = func() time.Time { return base }

	payload := SessionPayload{
		SessionID: "cs_700",
		Amount:    4900,
		Currency:  "usd",
		OrderJSON: orderJSON(t, paidLine("l1", "course-a", "lw_a", 4900, model.PlanLabel7Day)),
	}
	if err := fx.uc.Process(context.Background(), payload); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Not yet due.
	fx.uc.now = func() time.Time { return base.AddDate(0, 0, 6) }
	n, err := fx.uc.ExpireDue(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected nothing due, got n=%d err=%v", n, err)
	}

	// Past the 7-day window.
	fx.uc.now = func() time.Time { return base.AddDate(0, 0, 8) }
	n, err = fx.uc.ExpireDue(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("expected one expiry, got n=%d err=%v", n, err)
	}
}
