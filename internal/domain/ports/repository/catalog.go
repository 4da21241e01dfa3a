package repository

import (
	"context"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
)

// CatalogRepository serves the authoritative product/plan catalog. Read-only:
// catalog mutations happen out of band and reach us via the refresh webhook.
type CatalogRepository interface {
	ListAll(ctx context.Context, tx Tx) ([]*model.Product, error)
	FindByProductID(ctx context.Context, tx Tx, id string) (*model.Product, error)
}

// CatalogCacheInvalidator is implemented by caching decorators so the refresh
// webhook can evict entries without the use case knowing the cache layout.
type CatalogCacheInvalidator interface {
	InvalidateProduct(ctx context.Context, id string) error
	InvalidateAll(ctx context.Context) error
}
