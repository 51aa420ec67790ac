package transport

import (
	"context"
	"net/http"

	"connector-catalog/internal/catalog"
	"connector-catalog/internal/domain"
	"connector-catalog/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductCatalog is the read side of the catalog facade used by product routes.
type ProductCatalog interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	GetProductByID(ctx context.Context, rawID string) (*domain.Product, error)
	FilterOptions(ctx context.Context) (*domain.FilterOptions, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	catalog ProductCatalog
	errors  ErrorMapper
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog ProductCatalog, mapper ErrorMapper, logger *zap.Logger) *ProductHandler {
	if mapper.Logger == nil {
		mapper.Logger = logger
	}
	return &ProductHandler{
		catalog: catalog,
		errors:  mapper,
		logger:  logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/filter-options", h.GetFilterOptions)
		r.Get("/{id}", h.GetProduct)
	})
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := ParseProductQuery(r.URL.Query())
	if err := middleware.ValidateRequest(q); err != nil {
		h.logger.Debug("Product query validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err, ""))
		return
	}

	filter := q.Filter()

	// A category slug stands in for categoryId when no ids were given
	if len(filter.CategoryIDs) == 0 && q.CategorySlug != "" {
		if category, err := h.catalog.GetCategoryBySlug(r.Context(), q.CategorySlug); err == nil {
			filter.CategoryIDs = []string{category.ID.String()}
		} else {
			h.logger.Debug("Category slug not resolved", zap.String("slug", q.CategorySlug), zap.Error(err))
		}
	}

	page, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		h.errors.respond(w, r, err, "products not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "invalid product id format")
	if !ok {
		return
	}

	product, err := h.catalog.GetProductByID(r.Context(), id.String())
	if err != nil {
		h.errors.respond(w, r, err, "product not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// GetFilterOptions handles GET /api/products/filter-options
func (h *ProductHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.catalog.FilterOptions(r.Context())
	if err != nil {
		h.errors.respond(w, r, err, "filter options not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, options)
}

// parseUUIDParam validates a UUID path parameter and writes a 400 on failure.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name, message string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if err := middleware.ValidateValue(raw, "required,uuid"); err != nil {
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, middleware.CodeInvalidID, message,
			map[string]any{"validation_errors": middleware.FormatValidationErrors(err, name)})
		return uuid.Nil, false
	}
	return uuid.MustParse(raw), true
}

var _ ProductCatalog = (*catalog.Service)(nil)
