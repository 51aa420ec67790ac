package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connector-catalog/internal/database"
	"connector-catalog/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryRepository defines the read interface for category data access
type CategoryRepository interface {
	FindBySlug(ctx context.Context, slug string) (*domain.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context, q domain.CategoryQuery) (*domain.CategoryList, error)
}

type categoryRepository struct {
	db     database.Querier
	policy database.RetryPolicy
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *database.DB) CategoryRepository {
	return &categoryRepository{db: db, policy: db.Retry}
}

const categoryColumns = `id, name, slug, description, image, parent_id, created_at, updated_at`

func scanCategory(row rowScanner, extra ...any) (domain.Category, error) {
	var c domain.Category
	dest := []any{&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.ParentID, &c.CreatedAt, &c.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return c, err
}

func (r *categoryRepository) findOne(ctx context.Context, where string, arg any) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE %s = $1 LIMIT 1`, categoryColumns, where)

	rows, err := database.QueryWithRetry(ctx, r.db, r.policy, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to find category by %s: %w", where, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to find category by %s: %w", where, err)
		}
		return nil, ErrCategoryNotFound
	}

	category, err := scanCategory(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	return &category, nil
}

// FindBySlug retrieves a category by its URL slug
func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return r.findOne(ctx, "slug", slug)
}

// FindByID retrieves a category by ID using parameterized queries
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return r.findOne(ctx, "id", id)
}

// List retrieves a page of categories ordered by creation time, with the
// total number of matches computed in the same query.
func (r *categoryRepository) List(ctx context.Context, q domain.CategoryQuery) (*domain.CategoryList, error) {
	q = q.Normalize()

	w := &whereBuilder{}
	if term := strings.TrimSpace(q.Search); term != "" {
		p := w.next(likePattern(term))
		w.add(fmt.Sprintf("(name ILIKE %[1]s OR slug ILIKE %[1]s)", p))
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM categories
		%s
		ORDER BY created_at ASC, id ASC
		LIMIT %s OFFSET %s
	`, categoryColumns, w.clause(), w.next(q.Limit), w.next((q.Page-1)*q.Limit))

	rows, err := database.QueryWithRetry(ctx, r.db, r.policy, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	list := &domain.CategoryList{Categories: []domain.Category{}}
	for rows.Next() {
		var total int
		category, err := scanCategory(rows, &total)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		list.Categories = append(list.Categories, category)
		list.Total = total
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return list, nil
}
