package transport

import (
	"context"
	"net/http"

	"connector-catalog/internal/catalog"
	"connector-catalog/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CacheAdmin purges catalog cache entries.
type CacheAdmin interface {
	InvalidateProduct(ctx context.Context, id uuid.UUID) int
	InvalidateAll(ctx context.Context) int
}

// InvalidationResponse reports how many cache entries were removed.
type InvalidationResponse struct {
	Removed int `json:"removed"`
}

// AdminHandler exposes cache purges to operators after a catalog import.
type AdminHandler struct {
	cache  CacheAdmin
	logger *zap.Logger
}

func NewAdminHandler(cache CacheAdmin, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{cache: cache, logger: logger}
}

// RegisterRoutes registers the admin routes behind the given middleware
func (h *AdminHandler) RegisterRoutes(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Route("/api/admin/cache", func(r chi.Router) {
		r.Use(guards...)
		r.Delete("/", h.InvalidateAll)
		r.Delete("/products/{id}", h.InvalidateProduct)
	})
}

// InvalidateProduct handles DELETE /api/admin/cache/products/{id}
func (h *AdminHandler) InvalidateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "invalid product id format")
	if !ok {
		return
	}

	removed := h.cache.InvalidateProduct(r.Context(), id)

	subject, _ := middleware.GetSubject(r.Context())
	h.logger.Info("Product cache purged by operator",
		zap.String("subject", subject),
		zap.String("product_id", id.String()),
		zap.Int("removed", removed),
	)

	middleware.RespondWithJSON(w, http.StatusOK, InvalidationResponse{Removed: removed})
}

// InvalidateAll handles DELETE /api/admin/cache
func (h *AdminHandler) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	removed := h.cache.InvalidateAll(r.Context())

	subject, _ := middleware.GetSubject(r.Context())
	h.logger.Info("Catalog cache purged by operator",
		zap.String("subject", subject),
		zap.Int("removed", removed),
	)

	middleware.RespondWithJSON(w, http.StatusOK, InvalidationResponse{Removed: removed})
}

var _ CacheAdmin = (*catalog.Service)(nil)
