package transport

import (
	"context"
	"net/http"

	"connector-catalog/internal/catalog"
	"connector-catalog/internal/domain"
	"connector-catalog/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryCatalog is the read side of the catalog facade used by category routes.
type CategoryCatalog interface {
	ListCategories(ctx context.Context, q domain.CategoryQuery) (*domain.CategoryList, error)
	GetCategoryByID(ctx context.Context, rawID string) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

// CategoryListResponse is a page of categories with its paging parameters.
type CategoryListResponse struct {
	Categories []domain.Category `json:"categories"`
	Total      int               `json:"total"`
	Limit      int               `json:"limit"`
	Page       int               `json:"page"`
}

type CategoryHandler struct {
	catalog CategoryCatalog
	errors  ErrorMapper
	logger  *zap.Logger
}

func NewCategoryHandler(catalog CategoryCatalog, mapper ErrorMapper, logger *zap.Logger) *CategoryHandler {
	if mapper.Logger == nil {
		mapper.Logger = logger
	}
	return &CategoryHandler{
		catalog: catalog,
		errors:  mapper,
		logger:  logger,
	}
}

// RegisterRoutes registers all category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/slug/{slug}", h.GetCategoryBySlug)
		r.Get("/{id}", h.GetCategoryByID)
	})
}

// ListCategories handles GET /api/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	q := ParseCategoryQuery(r.URL.Query())
	if err := middleware.ValidateRequest(q); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err, ""))
		return
	}

	normalized := q.toDomain().Normalize()
	list, err := h.catalog.ListCategories(r.Context(), normalized)
	if err != nil {
		h.errors.respond(w, r, err, "categories not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CategoryListResponse{
		Categories: list.Categories,
		Total:      list.Total,
		Limit:      normalized.Limit,
		Page:       normalized.Page,
	})
}

// GetCategoryByID handles GET /api/categories/{id}. Malformed ids are
// answered like unknown ones.
func (h *CategoryHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategoryByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errors.respond(w, r, err, "category not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// GetCategoryBySlug handles GET /api/categories/slug/{slug}
func (h *CategoryHandler) GetCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.errors.respond(w, r, err, "category not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

var _ CategoryCatalog = (*catalog.Service)(nil)
