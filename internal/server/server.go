package server

import (
	"fmt"
	"net/http"
	"time"

	"connector-catalog/internal/cache"
	"connector-catalog/internal/catalog"
	"connector-catalog/internal/config"
	"connector-catalog/internal/database"
	custommiddleware "connector-catalog/internal/middleware"
	"connector-catalog/internal/repository"
	"connector-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	db      *database.DB
	cache   *cache.Client
	catalog *catalog.Service
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.DB, cacheClient *cache.Client) *Server {
	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	// Initialize the read facade
	catalogService := catalog.NewService(productRepo, categoryRepo, cacheClient, logger, catalog.OptionsFromConfig(cfg.Cache))

	// Initialize handlers
	mapper := transport.ErrorMapper{ReportBackendErrors: cfg.Catalog.ReportBackendErrors, Logger: logger}
	productHandler := transport.NewProductHandler(catalogService, mapper, logger)
	categoryHandler := transport.NewCategoryHandler(catalogService, mapper, logger)
	adminHandler := transport.NewAdminHandler(catalogService, logger)
	healthHandler := transport.NewHealthHandler(db, cacheClient)

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack(config.Seconds(cfg.Server.RequestTimeoutSeconds))...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.MetricsMiddleware)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Probes are never rate limited
	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	// Public catalog routes
	rateLimit := custommiddleware.RateLimitMiddleware(cacheClient.Redis(), custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            config.Seconds(cfg.RateLimit.WindowSeconds),
		KeyPrefix:         "ratelimit:catalog",
	}, logger)
	router.Group(func(r chi.Router) {
		r.Use(rateLimit)
		productHandler.RegisterRoutes(r)
		categoryHandler.RegisterRoutes(r)
	})

	// Operator routes
	adminHandler.RegisterRoutes(router,
		custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger),
		custommiddleware.RequireAdmin(logger),
	)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		db:      db,
		cache:   cacheClient,
		catalog: catalogService,
	}

	return server
}

// Close waits for pending cache writes, then releases the cache and the
// database pool. Call it after Shutdown.
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	s.catalog.Wait()

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("Failed to close cache connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
