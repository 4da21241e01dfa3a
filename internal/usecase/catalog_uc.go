// File: internal/usecase/catalog_uc.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/repository"
)

// Compile-time check
var _ CatalogUseCase = (*catalogUC)(nil)

// CatalogUseCase serves the purchasable catalog from a refreshable snapshot
// so page loads and checkout validation do not hit the backing store on every
// request.
type CatalogUseCase interface {
	GetAll(ctx context.Context) ([]*model.Product, error)
	GetByProductID(ctx context.Context, id string) (*model.Product, error)
	// Invalidate drops cached state for one product (and the aggregate
	// listing). Called by the catalog change-notification webhook.
	Invalidate(ctx context.Context, productID string) error
}

type catalogUC struct {
	repo        repository.CatalogRepository
	invalidator repository.CatalogCacheInvalidator // may be nil
	ttl         time.Duration
	maxFailures int
	log         *zerolog.Logger
	now         func() time.Time

	mu        sync.RWMutex
	snapshot  []*model.Product
	byID      map[string]*model.Product
	fetchedAt time.Time
	failures  int
}

func NewCatalogUseCase(repo repository.CatalogRepository, invalidator repository.CatalogCacheInvalidator, ttl time.Duration, maxFailures int, logger *zerolog.Logger) *catalogUC {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &catalogUC{
		repo:        repo,
		invalidator: invalidator,
		ttl:         ttl,
		maxFailures: maxFailures,
		log:         logger,
		now:         time.Now,
	}
}

func (uc *catalogUC) GetAll(ctx context.Context) ([]*model.Product, error) {
	snap, err := uc.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (uc *catalogUC) GetByProductID(ctx context.Context, id string) (*model.Product, error) {
	if _, err := uc.ensure(ctx); err != nil {
		return nil, err
	}
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	p, ok := uc.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (uc *catalogUC) Invalidate(ctx context.Context, productID string) error {
	if uc.invalidator != nil {
		if err := uc.invalidator.InvalidateProduct(ctx, productID); err != nil {
			uc.log.Warn().Err(err).Str("product_id", productID).Msg("cache invalidation failed")
		}
		if err := uc.invalidator.InvalidateAll(ctx); err != nil {
			uc.log.Warn().Err(err).Msg("catalog list invalidation failed")
		}
	}
	uc.mu.Lock()
	uc.fetchedAt = time.Time{} // force refresh on next read
	uc.mu.Unlock()
	return nil
}

// ensure returns a fresh-enough snapshot, refreshing when the TTL has
// elapsed. On backing-store failure it serves the last-known-good snapshot;
// with no snapshot at all it degrades to a visible placeholder once the
// failure budget is spent.
func (uc *catalogUC) ensure(ctx context.Context) ([]*model.Product, error) {
	uc.mu.RLock()
	fresh := !uc.fetchedAt.IsZero() && uc.now().Sub(uc.fetchedAt) < uc.ttl
	snap := uc.snapshot
	uc.mu.RUnlock()
	if fresh {
		return snap, nil
	}

	products, err := uc.repo.ListAll(ctx, repository.NoTX)
	if err != nil {
		uc.mu.Lock()
		uc.failures++
		failures := uc.failures
		stale := uc.snapshot
		uc.mu.Unlock()

		if stale != nil {
			uc.log.Warn().Err(err).Int("consecutive_failures", failures).Msg("catalog refresh failed; serving last-known-good snapshot")
			return stale, nil
		}
		if failures >= uc.maxFailures {
			uc.log.Error().Err(err).Int("consecutive_failures", failures).Msg("catalog unreachable; serving placeholder")
			return []*model.Product{placeholderProduct()}, nil
		}
		return nil, domain.ErrCatalogUnavailable
	}

	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
		for i := range p.Plans {
			if !p.Plans[i].HasValidPriceRef() {
				uc.log.Warn().
					Str("product_id", p.ID).
					Str("plan", string(p.Plans[i].Label)).
					Str("price_ref", p.Plans[i].StripePriceID).
					Msg("plan carries malformed price reference")
			}
		}
	}

	uc.mu.Lock()
	uc.snapshot = products
	uc.byID = byID
	uc.fetchedAt = uc.now()
	uc.failures = 0
	uc.mu.Unlock()
	return products, nil
}

// placeholderProduct is what shoppers see while the backing store is down.
// It is intentionally unpurchasable: no plans, so validation can never pass.
func placeholderProduct() *model.Product {
	return &model.Product{
		ID:          "catalog-unavailable",
		Name:        "Catalog temporarily unavailable",
		Description: "Course listings could not be loaded. Please try again shortly.",
	}
}
