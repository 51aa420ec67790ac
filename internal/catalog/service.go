// Package catalog serves product and category reads cache-aside: the cache is
// consulted first, the database answers misses, and results are written back
// in the background.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"connector-catalog/internal/config"
	"connector-catalog/internal/database"
	"connector-catalog/internal/domain"
	"connector-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ProductStore is the product query engine.
type ProductStore interface {
	Query(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FilterOptions(ctx context.Context) (*domain.FilterOptions, error)
}

// CategoryStore is the category lookup backend.
type CategoryStore interface {
	FindBySlug(ctx context.Context, slug string) (*domain.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context, q domain.CategoryQuery) (*domain.CategoryList, error)
}

// Cache is the best-effort key/value store. Implementations never fail the
// caller: errors surface only as a miss or a false return.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	Delete(ctx context.Context, keys ...string) bool
	DeleteByPrefix(ctx context.Context, prefix string) int
}

// Options tunes the facade.
type Options struct {
	TTL TTLPolicy
	// WriteTimeout bounds each background cache write.
	WriteTimeout time.Duration
	// SingleFlight collapses concurrent misses for the same key into one load.
	SingleFlight bool
}

// DefaultOptions returns the stock TTLs with a 500ms write timeout.
func DefaultOptions() Options {
	return Options{
		TTL:          DefaultTTLPolicy(),
		WriteTimeout: 500 * time.Millisecond,
	}
}

// OptionsFromConfig converts the cache settings.
func OptionsFromConfig(cfg config.CacheConfig) Options {
	return Options{
		TTL:          TTLPolicyFromConfig(cfg),
		WriteTimeout: config.Duration(cfg.WriteTimeoutMS),
		SingleFlight: cfg.SingleFlight,
	}
}

// Service is the product read facade.
type Service struct {
	products   ProductStore
	categories CategoryStore
	cache      Cache
	logger     *zap.Logger
	opts       Options

	writes conc.WaitGroup
	group  singleflight.Group
}

// NewService creates a new instance of Service
func NewService(products ProductStore, categories CategoryStore, cache Cache, logger *zap.Logger, opts Options) *Service {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultOptions().WriteTimeout
	}
	return &Service{
		products:   products,
		categories: categories,
		cache:      cache,
		logger:     logger,
		opts:       opts,
	}
}

// Wait blocks until every pending background cache write has finished.
func (s *Service) Wait() {
	s.writes.Wait()
}

// store writes value to the cache without holding up the caller. The write
// outlives the request context but is bounded by WriteTimeout.
func (s *Service) store(ctx context.Context, key string, value any, ttl time.Duration) {
	bg := context.WithoutCancel(ctx)
	s.writes.Go(func() {
		ctx, cancel := context.WithTimeout(bg, s.opts.WriteTimeout)
		defer cancel()
		s.cache.Set(ctx, key, value, ttl)
	})
}

// load runs fn, sharing the result between concurrent callers of the same
// key when single-flight is enabled.
func (s *Service) load(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	if !s.opts.SingleFlight || key == "" {
		return fn(ctx)
	}
	// The first caller's cancellation must not fail the others.
	shared := context.WithoutCancel(ctx)
	v, err, isShared := s.group.Do(key, func() (any, error) {
		return fn(shared)
	})
	if isShared {
		SharedLoads.Inc()
	}
	return v, err
}

// degrade logs a store failure that is being answered with an empty result.
// A caller that went away is not a store failure and is not counted.
func (s *Service) degrade(ctx context.Context, operation string, err error, fields ...zap.Field) {
	fields = append([]zap.Field{zap.String("operation", operation), zap.Error(err)}, fields...)
	if ctx.Err() != nil {
		s.logger.Debug("Catalog query abandoned by caller", fields...)
		return
	}
	Fallbacks.WithLabelValues(operation).Inc()
	s.logger.Error("Catalog query failed, serving empty result", fields...)
}

// ListProducts returns one page of products. Store failures yield an empty
// page; only connection pool exhaustion is returned as an error.
func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	key, cacheable := ProductsCacheKey(filter)

	if cacheable {
		var cached domain.ProductPage
		if s.cache.Get(ctx, key, &cached) {
			if cached.Products == nil {
				cached.Products = []domain.Product{}
			}
			return &cached, nil
		}
	}

	v, err := s.load(ctx, key, func(ctx context.Context) (any, error) {
		StoreQueries.WithLabelValues("list_products").Inc()
		return s.products.Query(ctx, filter)
	})
	if err != nil {
		if errors.Is(err, database.ErrPoolExhausted) {
			return nil, err
		}
		s.degrade(ctx, "list_products", err)
		return domain.EmptyProductPage(filter.EffectiveLimit()), nil
	}

	page := v.(*domain.ProductPage)
	if cacheable {
		s.store(ctx, key, page, s.opts.TTL.ForProducts(filter))
	}
	return page, nil
}

// GetProductByID returns ErrNotFound for malformed or unknown ids and a
// *BackendError when the store failed.
func (s *Service) GetProductByID(ctx context.Context, rawID string) (*domain.Product, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, ErrNotFound
	}

	key := ProductKey(id)
	var cached domain.Product
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	v, err := s.load(ctx, key, func(ctx context.Context) (any, error) {
		StoreQueries.WithLabelValues("get_product").Inc()
		return s.products.FindByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("Failed to load product", zap.String("id", id.String()), zap.Error(err))
		return nil, &BackendError{Op: "get_product", Err: err}
	}

	product := v.(*domain.Product)
	s.store(ctx, key, product, s.opts.TTL.Product)
	return product, nil
}

// GetCategoryBySlug looks a category up by its URL slug.
func (s *Service) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrNotFound
	}

	return s.getCategory(ctx, CategorySlugKey(slug), "get_category_by_slug", func(ctx context.Context) (*domain.Category, error) {
		return s.categories.FindBySlug(ctx, slug)
	})
}

// GetCategoryByID looks a category up by id; malformed ids are not found.
func (s *Service) GetCategoryByID(ctx context.Context, rawID string) (*domain.Category, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, ErrNotFound
	}

	return s.getCategory(ctx, CategoryIDKey(id), "get_category_by_id", func(ctx context.Context) (*domain.Category, error) {
		return s.categories.FindByID(ctx, id)
	})
}

func (s *Service) getCategory(ctx context.Context, key, operation string, find func(ctx context.Context) (*domain.Category, error)) (*domain.Category, error) {
	var cached domain.Category
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	v, err := s.load(ctx, key, func(ctx context.Context) (any, error) {
		StoreQueries.WithLabelValues(operation).Inc()
		return find(ctx)
	})
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("Failed to load category", zap.String("key", key), zap.Error(err))
		return nil, &BackendError{Op: operation, Err: err}
	}

	category := v.(*domain.Category)
	s.store(ctx, key, category, s.opts.TTL.Category)
	return category, nil
}

// ListCategories returns a page of categories. Searches bypass the cache.
func (s *Service) ListCategories(ctx context.Context, q domain.CategoryQuery) (*domain.CategoryList, error) {
	q = q.Normalize()

	key := ""
	if strings.TrimSpace(q.Search) == "" {
		key = CategoriesKey(q.Limit, q.Page)
		var cached domain.CategoryList
		if s.cache.Get(ctx, key, &cached) {
			if cached.Categories == nil {
				cached.Categories = []domain.Category{}
			}
			return &cached, nil
		}
	}

	v, err := s.load(ctx, key, func(ctx context.Context) (any, error) {
		StoreQueries.WithLabelValues("list_categories").Inc()
		return s.categories.List(ctx, q)
	})
	if err != nil {
		if errors.Is(err, database.ErrPoolExhausted) {
			return nil, err
		}
		s.degrade(ctx, "list_categories", err)
		return &domain.CategoryList{Categories: []domain.Category{}}, nil
	}

	list := v.(*domain.CategoryList)
	if key != "" {
		s.store(ctx, key, list, s.opts.TTL.Category)
	}
	return list, nil
}

// FilterOptions returns the distinct values of every filterable field.
func (s *Service) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	key := FilterOptionsKey()

	var cached domain.FilterOptions
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	v, err := s.load(ctx, key, func(ctx context.Context) (any, error) {
		StoreQueries.WithLabelValues("filter_options").Inc()
		return s.products.FilterOptions(ctx)
	})
	if err != nil {
		if errors.Is(err, database.ErrPoolExhausted) {
			return nil, err
		}
		s.degrade(ctx, "filter_options", err)
		return domain.EmptyFilterOptions(), nil
	}

	opts := v.(*domain.FilterOptions)
	s.store(ctx, key, opts, s.opts.TTL.FilterOptions)
	return opts, nil
}

// InvalidateProduct removes the product's detail entry and every cached
// listing and option set, since any of them may include it. It returns the
// number of entries removed by prefix.
func (s *Service) InvalidateProduct(ctx context.Context, id uuid.UUID) int {
	s.cache.Delete(ctx, ProductKey(id), FilterOptionsKey())
	removed := s.cache.DeleteByPrefix(ctx, ProductListPrefix)

	s.logger.Info("Invalidated product cache",
		zap.String("id", id.String()),
		zap.Int("listings_removed", removed),
	)
	return removed
}

// InvalidateAll purges every catalog namespace and returns how many entries went.
func (s *Service) InvalidateAll(ctx context.Context) int {
	removed := 0
	for _, prefix := range Prefixes {
		removed += s.cache.DeleteByPrefix(ctx, prefix)
	}

	s.logger.Info("Invalidated catalog cache", zap.Int("removed", removed))
	return removed
}
