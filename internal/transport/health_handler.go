package transport

import (
	"context"
	"net/http"

	"connector-catalog/internal/cache"
	"connector-catalog/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// DatabaseHealth reports connectivity; "status" is "up" or "down".
type DatabaseHealth interface {
	Health(ctx context.Context) map[string]string
}

// CacheStatus reports the cache connection state.
type CacheStatus interface {
	State() cache.State
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Database map[string]string `json:"database"`
	Cache    string            `json:"cache"`
}

type HealthHandler struct {
	db    DatabaseHealth
	cache CacheStatus
}

func NewHealthHandler(db DatabaseHealth, cache CacheStatus) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
}

// Health answers 200 while the database is reachable. A degraded cache is
// reported but does not fail the check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	cacheState := h.cache.State()
	resp := HealthResponse{
		Status:   "ok",
		Database: h.db.Health(r.Context()),
		Cache:    cacheState.String(),
	}

	status := http.StatusOK
	if resp.Database["status"] != "up" {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else if cacheState == cache.StateDegraded {
		resp.Status = "degraded"
	}

	middleware.RespondWithJSON(w, status, resp)
}
