package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/repository"
)

var _ RedisClient = (*memRedis)(nil)

// memRedis is a map-backed stand-in for the real client.
type memRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemRedis() *memRedis { return &memRedis{data: map[string]string{}} }

func (m *memRedis) Ping(ctx context.Context) error { return nil }

func (m *memRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	}
	return nil
}

func (m *memRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memRedis) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memRedis) Close() error { return nil }

type stubCatalogRepo struct {
	mu       sync.Mutex
	products []*model.Product
	listed   int
	found    int
}

func (s *stubCatalogRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listed++
	return s.products, nil
}

func (s *stubCatalogRepo) FindByProductID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.found++
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCatalogRepo) innerCalls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listed, s.found
}

func TestCachedCatalogRepoServesSecondReadFromCache(t *testing.T) {
	t.Parallel()

	inner := &stubCatalogRepo{products: []*model.Product{{ID: "course-a", Name: "Course A"}}}
	cache := NewCachedCatalogRepo(inner, newMemRedis(), time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		products, err := cache.ListAll(ctx, nil)
		if err != nil {
			t.Fatalf("ListAll #%d: %v", i+1, err)
		}
		if len(products) != 1 || products[0].ID != "course-a" {
			t.Fatalf("ListAll #%d: unexpected result %+v", i+1, products)
		}
	}
	if listed, _ := inner.innerCalls(); listed != 1 {
		t.Fatalf("second read must come from cache, inner hit %d times", listed)
	}

	for i := 0; i < 2; i++ {
		p, err := cache.FindByProductID(ctx, nil, "course-a")
		if err != nil {
			t.Fatalf("FindByProductID #%d: %v", i+1, err)
		}
		if p.Name != "Course A" {
			t.Fatalf("FindByProductID #%d: unexpected product %+v", i+1, p)
		}
	}
	if _, found := inner.innerCalls(); found != 1 {
		t.Fatalf("second lookup must come from cache, inner hit %d times", found)
	}
}

func TestCachedCatalogRepoInvalidateForcesRefetch(t *testing.T) {
	t.Parallel()

	inner := &stubCatalogRepo{products: []*model.Product{{ID: "course-a", Name: "Course A"}}}
	cache := NewCachedCatalogRepo(inner, newMemRedis(), time.Minute)
	ctx := context.Background()

	if _, err := cache.ListAll(ctx, nil); err != nil {
		t.Fatalf("warm ListAll: %v", err)
	}
	if _, err := cache.FindByProductID(ctx, nil, "course-a"); err != nil {
		t.Fatalf("warm FindByProductID: %v", err)
	}

	if err := cache.InvalidateProduct(ctx, "course-a"); err != nil {
		t.Fatalf("InvalidateProduct: %v", err)
	}

	if _, err := cache.ListAll(ctx, nil); err != nil {
		t.Fatalf("ListAll after invalidate: %v", err)
	}
	if _, err := cache.FindByProductID(ctx, nil, "course-a"); err != nil {
		t.Fatalf("FindByProductID after invalidate: %v", err)
	}
	listed, found := inner.innerCalls()
	if listed != 2 || found != 2 {
		t.Fatalf("invalidation must evict both keys, inner calls listed=%d found=%d", listed, found)
	}
}

func TestCachedCatalogRepoBypassesCacheInTransaction(t *testing.T) {
	t.Parallel()

	inner := &stubCatalogRepo{products: []*model.Product{{ID: "course-a", Name: "Course A"}}}
	red := newMemRedis()
	cache := NewCachedCatalogRepo(inner, red, time.Minute)
	ctx := context.Background()

	if _, err := cache.ListAll(ctx, struct{}{}); err != nil {
		t.Fatalf("ListAll in tx: %v", err)
	}
	red.mu.Lock()
	stored := len(red.data)
	red.mu.Unlock()
	if stored != 0 {
		t.Fatalf("transactional reads must not touch the cache, %d keys stored", stored)
	}
}
