package transport

import (
	"errors"
	"net/http"

	"connector-catalog/internal/catalog"
	"connector-catalog/internal/database"
	"connector-catalog/internal/middleware"

	"go.uber.org/zap"
)

// ErrorMapper turns catalog errors into HTTP envelopes.
type ErrorMapper struct {
	// ReportBackendErrors answers store failures on single-item reads with
	// 503 instead of 404.
	ReportBackendErrors bool
	Logger              *zap.Logger
}

func (m ErrorMapper) respond(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var backendErr *catalog.BackendError

	switch {
	case errors.Is(err, database.ErrPoolExhausted):
		m.Logger.Warn("Database pool exhausted", zap.String("path", r.URL.Path), zap.Error(err))
		w.Header().Set("Retry-After", "1")
		middleware.RespondWithErrorDetails(w, http.StatusServiceUnavailable, middleware.CodePoolExhausted, "database is busy, retry shortly", nil)
	case errors.Is(err, catalog.ErrNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, notFound)
	case errors.As(err, &backendErr):
		if m.ReportBackendErrors {
			middleware.RespondWithErrorDetails(w, http.StatusServiceUnavailable, middleware.CodeBackendUnavailable, "catalog backend unavailable",
				map[string]any{"operation": backendErr.Op})
			return
		}
		middleware.RespondWithError(w, http.StatusNotFound, notFound)
	default:
		m.Logger.Error("Unhandled catalog error", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
