package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/adapter"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/repository"
)

// ---- catalog ----

type memCatalogRepo struct {
	mu       sync.Mutex
	products []*model.Product
	err      error
	calls    int
}

func (m *memCatalogRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *memCatalogRepo) FindByProductID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCatalogRepo) setError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// ---- users ----

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byProv  map[string]*model.User
	saveErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*model.User{}, byProv: map[string]*model.User{}}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byProv[u.ProviderID] = &cp
	return nil
}

func (m *memUserRepo) FindByProviderID(ctx context.Context, tx repository.Tx, providerID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byProv[providerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// ---- purchases ----

type memPurchaseRepo struct {
	mu        sync.Mutex
	bySession map[string]*model.Purchase
	items     map[string][]*model.PurchaseItem
	// addItemErrs fails AddItem for matching line ids, simulating a write
	// that dies partway through an order.
	addItemErrs map[string]error
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{
		bySession:   map[string]*model.Purchase{},
		items:       map[string][]*model.PurchaseItem{},
		addItemErrs: map[string]error{},
	}
}

func (m *memPurchaseRepo) failAddItem(lineID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addItemErrs[lineID] = err
}

func (m *memPurchaseRepo) healAddItem(lineID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.addItemErrs, lineID)
}

func (m *memPurchaseRepo) CreatePending(ctx context.Context, tx repository.Tx, p *model.Purchase) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bySession[p.SessionID]; ok {
		return false, nil
	}
	cp := *p
	m.bySession[p.SessionID] = &cp
	return true, nil
}

func (m *memPurchaseRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.bySession[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPurchaseRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.bySession {
		if p.ID == id {
			p.Status = model.PurchaseStatusCompleted
			p.CompletedAt = &at
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memPurchaseRepo) AddItem(ctx context.Context, tx repository.Tx, item *model.PurchaseItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.addItemErrs[item.LineID]; ok {
		return err
	}
	for _, it := range m.items[item.PurchaseID] {
		if it.LineID == item.LineID {
			return nil
		}
	}
	cp := *item
	m.items[item.PurchaseID] = append(m.items[item.PurchaseID], &cp)
	return nil
}

func (m *memPurchaseRepo) ListItems(ctx context.Context, tx repository.Tx, purchaseID string) ([]*model.PurchaseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.PurchaseItem(nil), m.items[purchaseID]...), nil
}

func (m *memPurchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Purchase
	for _, p := range m.bySession {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPurchaseRepo) purchaseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bySession)
}

// ---- enrollments ----

type memEnrollmentRepo struct {
	mu      sync.Mutex
	rows    []*model.Enrollment
	ownedBy map[string][]string // userID -> product ids, for ownership tests
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{ownedBy: map[string][]string{}}
}

func (m *memEnrollmentRepo) Save(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.PurchaseItemID == e.PurchaseItemID {
			return nil // idempotent per purchase item
		}
	}
	cp := *e
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memEnrollmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Enrollment
	for _, e := range m.rows {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memEnrollmentRepo) ListOwnedProductIDs(ctx context.Context, tx repository.Tx, userID string, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ownedBy[userID]...), nil
}

func (m *memEnrollmentRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.rows {
		if e.Status == model.EnrollmentStatusActive && !e.ExpiresAt.After(now) {
			e.Status = model.EnrollmentStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memEnrollmentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// ---- payment gateway ----

type fakeGateway struct {
	mu      sync.Mutex
	calls   []adapter.CheckoutParams
	session *adapter.CheckoutSession
	err     error
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, p)
	if g.err != nil {
		return nil, g.err
	}
	if g.session != nil {
		return g.session, nil
	}
	return &adapter.CheckoutSession{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// ---- learning platform ----

type fakePlatform struct {
	mu          sync.Mutex
	usersByMail map[string]*adapter.PlatformUser
	enrolls     []adapter.EnrollRequest
	enrollErrs  map[string]error // keyed by ProductID (enrollment id)
	createErr   error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		usersByMail: map[string]*adapter.PlatformUser{},
		enrollErrs:  map[string]error{},
	}
}

func (p *fakePlatform) FindUserByEmail(ctx context.Context, email string) (*adapter.PlatformUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.usersByMail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (p *fakePlatform) CreateUser(ctx context.Context, email, name string) (*adapter.PlatformUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	u := &adapter.PlatformUser{ID: "lw_" + email, Email: email, Name: name}
	p.usersByMail[email] = u
	return u, nil
}

func (p *fakePlatform) Enroll(ctx context.Context, req adapter.EnrollRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enrolls = append(p.enrolls, req)
	if err, ok := p.enrollErrs[req.ProductID]; ok {
		return err
	}
	return nil
}

func (p *fakePlatform) enrollCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.enrolls)
}

// ---- transaction manager ----

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}
