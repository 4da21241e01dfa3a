package web

import (
	"context"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/usecase"
)

type mockCheckoutUC struct {
	validateFn func(ctx context.Context, lines []model.CartLine, providerUserID string) ([]model.ProcessedLine, error)
	checkFn    func(ctx context.Context, lines []model.CartLine, providerUserID string) (model.ConflictReport, error)
	checkoutFn func(ctx context.Context, lines []model.CartLine, user usecase.UserInfo, originURL string) (*usecase.CheckoutResult, error)
}

func (m *mockCheckoutUC) ValidateCart(ctx context.Context, lines []model.CartLine, providerUserID string) ([]model.ProcessedLine, error) {
	return m.validateFn(ctx, lines, providerUserID)
}

func (m *mockCheckoutUC) CheckCart(ctx context.Context, lines []model.CartLine, providerUserID string) (model.ConflictReport, error) {
	return m.checkFn(ctx, lines, providerUserID)
}

func (m *mockCheckoutUC) Checkout(ctx context.Context, lines []model.CartLine, user usecase.UserInfo, originURL string) (*usecase.CheckoutResult, error) {
	return m.checkoutFn(ctx, lines, user, originURL)
}

type mockCatalogUC struct {
	getAllFn     func(ctx context.Context) ([]*model.Product, error)
	getByIDFn    func(ctx context.Context, id string) (*model.Product, error)
	invalidateFn func(ctx context.Context, productID string) error

	invalidated []string
}

func (m *mockCatalogUC) GetAll(ctx context.Context) ([]*model.Product, error) {
	return m.getAllFn(ctx)
}

func (m *mockCatalogUC) GetByProductID(ctx context.Context, id string) (*model.Product, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockCatalogUC) Invalidate(ctx context.Context, productID string) error {
	m.invalidated = append(m.invalidated, productID)
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx, productID)
	}
	return nil
}

type mockEnrollmentUC struct {
	processFn    func(ctx context.Context, p usecase.SessionPayload) error
	listByUserFn func(ctx context.Context, providerUserID string) ([]*model.Enrollment, error)

	processCalls []usecase.SessionPayload
}

func (m *mockEnrollmentUC) Process(ctx context.Context, p usecase.SessionPayload) error {
	m.processCalls = append(m.processCalls, p)
	if m.processFn != nil {
		return m.processFn(ctx, p)
	}
	return nil
}

func (m *mockEnrollmentUC) ListByUser(ctx context.Context, providerUserID string) ([]*model.Enrollment, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, providerUserID)
	}
	return nil, nil
}

func (m *mockEnrollmentUC) ExpireDue(ctx context.Context) (int, error) { return 0, nil }
