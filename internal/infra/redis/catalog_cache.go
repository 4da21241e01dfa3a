package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/repository"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/metrics"
)

var (
	_ repository.CatalogRepository       = (*CachedCatalogRepo)(nil)
	_ repository.CatalogCacheInvalidator = (*CachedCatalogRepo)(nil)
)

const (
	catalogAllKey        = "catalog:all"
	catalogProductPrefix = "catalog:product:"
)

// CachedCatalogRepo wraps a CatalogRepository with a Redis read-through
// cache. Cache failures fall back to the inner repository.
type CachedCatalogRepo struct {
	inner  repository.CatalogRepository
	client RedisClient
	ttl    time.Duration
}

func NewCachedCatalogRepo(inner repository.CatalogRepository, client RedisClient, ttl time.Duration) *CachedCatalogRepo {
	return &CachedCatalogRepo{inner: inner, client: client, ttl: ttl}
}

func (c *CachedCatalogRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	if tx == nil {
		if data, err := c.client.Get(ctx, catalogAllKey); err == nil {
			var products []*model.Product
			if err := json.Unmarshal([]byte(data), &products); err == nil {
				metrics.IncCacheRequest("catalog", "hit")
				return products, nil
			}
		} else if err != goredis.Nil {
			metrics.IncCacheRequest("catalog", "error")
		}
		metrics.IncCacheRequest("catalog", "miss")
	}

	products, err := c.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		if data, err := json.Marshal(products); err == nil {
			_ = c.client.Set(ctx, catalogAllKey, data, c.ttl)
		}
	}
	return products, nil
}

func (c *CachedCatalogRepo) FindByProductID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	key := catalogProductPrefix + id
	if tx == nil {
		if data, err := c.client.Get(ctx, key); err == nil {
			var p model.Product
			if err := json.Unmarshal([]byte(data), &p); err == nil {
				metrics.IncCacheRequest("catalog", "hit")
				return &p, nil
			}
		} else if err != goredis.Nil {
			metrics.IncCacheRequest("catalog", "error")
		}
		metrics.IncCacheRequest("catalog", "miss")
	}

	p, err := c.inner.FindByProductID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		if data, err := json.Marshal(p); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttl)
		}
	}
	return p, nil
}

func (c *CachedCatalogRepo) InvalidateProduct(ctx context.Context, id string) error {
	return c.client.Del(ctx, catalogProductPrefix+id, catalogAllKey)
}

func (c *CachedCatalogRepo) InvalidateAll(ctx context.Context) error {
	return c.client.Del(ctx, catalogAllKey)
}
