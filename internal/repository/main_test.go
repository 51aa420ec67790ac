package repository

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"connector-catalog/internal/database"
	"connector-catalog/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// testDB is nil when no container runtime is available; integration tests skip.
var testDB *database.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "catalog"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := dbContainer.ConnectionString(context.Background(), "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	if err := database.RunMigrations(sqlDB, "../../migrations", zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	testDB = &database.DB{DB: sqlDB, Retry: database.DefaultRetryPolicy()}
	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Printf("postgres container unavailable, skipping integration tests: %v", err)
		testDB = nil
	}

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(code)
}

func requireDB(t *testing.T) *database.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres container unavailable")
	}
	return testDB
}

func resetTables(t *testing.T, db *database.DB) {
	t.Helper()
	if _, err := db.Exec(`TRUNCATE products, categories`); err != nil {
		t.Fatalf("Failed to reset tables: %v", err)
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// seedID returns a UUID whose ordering matches n.
func seedID(n int) uuid.UUID {
	var id uuid.UUID
	id[14] = byte(n >> 8)
	id[15] = byte(n)
	return id
}

func insertCategory(t *testing.T, db *database.DB, c domain.Category) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO categories (id, name, slug, description, image, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, c.ID, c.Name, c.Slug, c.Description, c.Image, c.ParentID, c.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to insert category %s: %v", c.Slug, err)
	}
}

func insertProduct(t *testing.T, db *database.DB, p domain.Product) {
	t.Helper()
	if p.SKU == "" {
		p.SKU = "SKU-" + p.ID.String()
	}
	if p.Name == "" {
		p.Name = "Connector " + p.ID.String()[30:]
	}
	_, err := db.Exec(`
		INSERT INTO products (
			id, sku, name, description, mpn, category_id,
			connector_type, coding, pins, gender, ip_rating,
			price, in_stock, images, documents
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		p.ID, p.SKU, p.Name, p.Description, p.MPN, p.CategoryID,
		p.ConnectorType, p.Code, p.Pins, p.Gender, p.DegreeOfProtection,
		p.Price, p.InStock, p.Images, p.Documents,
	)
	if err != nil {
		t.Fatalf("Failed to insert product %s: %v", p.ID, err)
	}
}

func priced(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}
