package config

import (
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
}

type ServerConfig struct {
	Port           string `validate:"required,numeric"`
	Env            string `validate:"required,oneof=development production test"`
	AllowedOrigins []string

	// RequestTimeoutSeconds bounds every handler through the request context.
	RequestTimeoutSeconds int `validate:"gte=1"`
}

type DatabaseConfig struct {
	Host                   string `validate:"required"`
	Port                   string `validate:"required,numeric"`
	User                   string
	Password               string
	Database               string
	Schema                 string
	SSLMode                string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns           int    `validate:"gte=1"`
	MaxIdleConns           int    `validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `validate:"gte=0"`
	MigrationsDir          string
	Retry                  RetryConfig
}

// RetryConfig bounds the pool-exhaustion retry loop.
type RetryConfig struct {
	Attempts       int `validate:"gte=1,lte=10"`
	InitialDelayMS int `validate:"gte=1"`
	MaxDelayMS     int `validate:"gtefield=InitialDelayMS"`
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string `validate:"omitempty,numeric"`
	Password string
	DB       int `validate:"gte=0"`
}

// Enabled reports whether any Redis endpoint was configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

// CacheConfig holds TTLs in seconds.
type CacheConfig struct {
	FilteredTTLSeconds      int `validate:"gte=1"`
	BrowseTTLSeconds        int `validate:"gte=1"`
	ProductTTLSeconds       int `validate:"gte=1"`
	CategoryTTLSeconds      int `validate:"gte=1"`
	FilterOptionsTTLSeconds int `validate:"gte=1"`
	WriteTimeoutMS          int `validate:"gte=1"`
	SingleFlight            bool
}

type CatalogConfig struct {
	// ReportBackendErrors maps store failures on single-item reads to 503 instead of 404.
	ReportBackendErrors bool
}

type RateLimitConfig struct {
	Requests      int `validate:"gte=1"`
	WindowSeconds int `validate:"gte=1"`
}

type JWTConfig struct {
	Secret string
}

func Load() *Config {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not read .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("SERVER_REQUEST_TIMEOUT_SECONDS", 15)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	v.SetDefault("DB_MIGRATIONS_DIR", "migrations")
	v.SetDefault("DB_RETRY_ATTEMPTS", 3)
	v.SetDefault("DB_RETRY_INITIAL_DELAY_MS", 100)
	v.SetDefault("DB_RETRY_MAX_DELAY_MS", 1000)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_FILTERED_SECONDS", 300)
	v.SetDefault("CACHE_TTL_BROWSE_SECONDS", 60)
	v.SetDefault("CACHE_TTL_PRODUCT_SECONDS", 900)
	v.SetDefault("CACHE_TTL_CATEGORY_SECONDS", 900)
	v.SetDefault("CACHE_TTL_FILTER_OPTIONS_SECONDS", 300)
	v.SetDefault("CACHE_WRITE_TIMEOUT_MS", 500)
	v.SetDefault("CACHE_SINGLEFLIGHT", false)
	v.SetDefault("CATALOG_REPORT_BACKEND_ERRORS", false)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

			RequestTimeoutSeconds: v.GetInt("SERVER_REQUEST_TIMEOUT_SECONDS"),
		},
		Database: DatabaseConfig{
			Host:                   v.GetString("DB_HOST"),
			Port:                   v.GetString("DB_PORT"),
			User:                   v.GetString("DB_USER"),
			Password:               v.GetString("DB_PASSWORD"),
			Database:               v.GetString("DB_DATABASE"),
			Schema:                 v.GetString("DB_SCHEMA"),
			SSLMode:                v.GetString("DB_SSLMODE"),
			MaxOpenConns:           v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:           v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetimeMinutes: v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES"),
			MigrationsDir:          v.GetString("DB_MIGRATIONS_DIR"),
			Retry: RetryConfig{
				Attempts:       v.GetInt("DB_RETRY_ATTEMPTS"),
				InitialDelayMS: v.GetInt("DB_RETRY_INITIAL_DELAY_MS"),
				MaxDelayMS:     v.GetInt("DB_RETRY_MAX_DELAY_MS"),
			},
		},
		Redis: RedisConfig{
			URL:      v.GetString("REDIS_URL"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			FilteredTTLSeconds:      v.GetInt("CACHE_TTL_FILTERED_SECONDS"),
			BrowseTTLSeconds:        v.GetInt("CACHE_TTL_BROWSE_SECONDS"),
			ProductTTLSeconds:       v.GetInt("CACHE_TTL_PRODUCT_SECONDS"),
			CategoryTTLSeconds:      v.GetInt("CACHE_TTL_CATEGORY_SECONDS"),
			FilterOptionsTTLSeconds: v.GetInt("CACHE_TTL_FILTER_OPTIONS_SECONDS"),
			WriteTimeoutMS:          v.GetInt("CACHE_WRITE_TIMEOUT_MS"),
			SingleFlight:            v.GetBool("CACHE_SINGLEFLIGHT"),
		},
		Catalog: CatalogConfig{
			ReportBackendErrors: v.GetBool("CATALOG_REPORT_BACKEND_ERRORS"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
	}
}

// Validate checks the loaded values against their struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Duration converts a millisecond setting.
func Duration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Seconds converts a second setting.
func Seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
