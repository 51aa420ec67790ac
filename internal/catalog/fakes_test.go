package catalog

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"connector-catalog/internal/domain"
	"connector-catalog/internal/repository"

	"github.com/google/uuid"
)

// memoryCache stores JSON like the Redis client does, so decoding paths are exercised.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	gets    atomic.Int32
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest any) bool {
	c.gets.Add(1)
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	c.ttls[key] = ttl
	return true
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return true
}

func (c *memoryCache) DeleteByPrefix(ctx context.Context, prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *memoryCache) ttl(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

func (c *memoryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// brokenCache behaves like a cache whose backend errors on every call.
type brokenCache struct {
	sets atomic.Int32
}

func (c *brokenCache) Get(ctx context.Context, key string, dest any) bool {
	return false
}

func (c *brokenCache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	c.sets.Add(1)
	return false
}

func (c *brokenCache) Delete(ctx context.Context, keys ...string) bool {
	return false
}

func (c *brokenCache) DeleteByPrefix(ctx context.Context, prefix string) int {
	return 0
}

// memoryStore implements the cursor algorithm over an in-memory product set.
type memoryStore struct {
	mu         sync.Mutex
	products   []domain.Product
	categories []domain.Category
	err        error
	queries    atomic.Int32
	// gate, when set, blocks every load until it is closed.
	gate chan struct{}
}

func newMemoryStore(products ...domain.Product) *memoryStore {
	sorted := append([]domain.Product(nil), products...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.String() < sorted[j].ID.String() })
	return &memoryStore{products: sorted}
}

func (s *memoryStore) enter() error {
	s.queries.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *memoryStore) Query(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}

	limit := filter.EffectiveLimit()
	var cursor *uuid.UUID
	if id, err := uuid.Parse(filter.Cursor); err == nil {
		cursor = &id
	}

	matched := []domain.Product{}
	for _, p := range s.products {
		if cursor != nil && p.ID.String() <= cursor.String() {
			continue
		}
		if filter.InStock && !p.InStock {
			continue
		}
		matched = append(matched, p)
		if len(matched) == limit+1 {
			break
		}
	}

	page := &domain.ProductPage{Pagination: domain.Pagination{Limit: limit, HasPrev: cursor != nil}}
	if len(matched) > limit {
		matched = matched[:limit]
		page.Pagination.HasNext = true
		next := matched[len(matched)-1].ID.String()
		page.Pagination.Cursor = &next
	}
	page.Products = matched
	return page, nil
}

func (s *memoryStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	for i := range s.products {
		if s.products[i].ID == id {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (s *memoryStore) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	opts := domain.EmptyFilterOptions()
	seen := map[string]bool{}
	for _, p := range s.products {
		if p.ConnectorType != nil && !seen[*p.ConnectorType] {
			seen[*p.ConnectorType] = true
			opts.ConnectorTypes = append(opts.ConnectorTypes, *p.ConnectorType)
		}
	}
	sort.Strings(opts.ConnectorTypes)
	return opts, nil
}

func (s *memoryStore) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	for i := range s.categories {
		if s.categories[i].Slug == slug {
			c := s.categories[i]
			return &c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (s *memoryStore) findCategory(id uuid.UUID) (*domain.Category, error) {
	for i := range s.categories {
		if s.categories[i].ID == id {
			c := s.categories[i]
			return &c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (s *memoryStore) List(ctx context.Context, q domain.CategoryQuery) (*domain.CategoryList, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	out := &domain.CategoryList{Categories: []domain.Category{}}
	for _, c := range s.categories {
		if q.Search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(q.Search)) {
			out.Categories = append(out.Categories, c)
		}
	}
	out.Total = len(out.Categories)
	return out, nil
}

// categoryStore serves memoryStore's categories; FindByID looks up categories, not products.
type categoryStore struct{ *memoryStore }

func (c categoryStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	return c.findCategory(id)
}

func (s *memoryStore) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
