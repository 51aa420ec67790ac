package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"connector-catalog/internal/database"
	"connector-catalog/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the read interface for product data access
type ProductRepository interface {
	Query(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FilterOptions(ctx context.Context) (*domain.FilterOptions, error)
}

type productRepository struct {
	db     database.Querier
	policy database.RetryPolicy
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *database.DB) ProductRepository {
	return &productRepository{db: db, policy: db.Retry}
}

const productColumns = `
	id, sku, name, description, mpn, category_id,
	product_type, connector_type, coding, pins, gender, ip_rating,
	coupling, wire_cross_section, temperature_range, cable_diameter,
	cable_mantle_color, cable_mantle_material, cable_length, gland_material,
	housing_material, pin_contact, socket_contact, cable_drag_chain_suitable,
	tightening_torque_max, bending_radius_fixed, bending_radius_repeated,
	contact_plating, voltage, current, halogen_free, stripping_force,
	price, price_type, in_stock, stock_quantity,
	images, documents, datasheet_url, drawing_url,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.MPN, &p.CategoryID,
		&p.ProductType, &p.ConnectorType, &p.Code, &p.Pins, &p.Gender, &p.DegreeOfProtection,
		&p.Coupling, &p.WireCrossSection, &p.TemperatureRange, &p.CableDiameter,
		&p.CableMantleColor, &p.CableMantleMaterial, &p.CableLength, &p.GlandMaterial,
		&p.HousingMaterial, &p.PinContact, &p.SocketContact, &p.CableDragChainSuitable,
		&p.TighteningTorqueMax, &p.BendingRadiusFixed, &p.BendingRadiusRepeated,
		&p.ContactPlating, &p.OperatingVoltage, &p.RatedCurrent, &p.HalogenFree, &p.StrippingForce,
		&p.Price, &p.PriceType, &p.InStock, &p.StockQuantity,
		&p.Images, &p.Documents, &p.DatasheetURL, &p.DrawingURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if p.Images == nil {
		p.Images = domain.StringList{}
	}
	if p.Documents == nil {
		p.Documents = domain.DocumentList{}
	}
	return p, err
}

// whereBuilder accumulates AND-ed predicates with positional parameters.
type whereBuilder struct {
	conditions []string
	args       []any
}

func (w *whereBuilder) next(value any) string {
	w.args = append(w.args, value)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(condition string) {
	w.conditions = append(w.conditions, condition)
}

// in adds "column IN (...)" for a non-empty value set; a single value uses "=".
func (w *whereBuilder) in(column string, values []any) {
	if len(values) == 0 {
		return
	}
	if len(values) == 1 {
		w.add(fmt.Sprintf("%s = %s", column, w.next(values[0])))
		return
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = w.next(v)
	}
	w.add(fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

func stringArgs(values []string) []any {
	args := make([]any, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			args = append(args, v)
		}
	}
	return args
}

// uuidArgs keeps only syntactically valid identifiers.
func uuidArgs(values []string) []any {
	args := make([]any, 0, len(values))
	for _, v := range values {
		if id, err := uuid.Parse(strings.TrimSpace(v)); err == nil {
			args = append(args, id)
		}
	}
	return args
}

func intArgs(values []int) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// likePattern wraps term for a substring ILIKE match with wildcards escaped.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// parseCursor returns nil for an absent or malformed cursor.
func parseCursor(cursor string) *uuid.UUID {
	if cursor == "" {
		return nil
	}
	id, err := uuid.Parse(cursor)
	if err != nil {
		return nil
	}
	return &id
}

// buildProductQuery renders the listing query for filter and returns its arguments.
func buildProductQuery(filter domain.ProductFilter) (string, []any, *uuid.UUID, int) {
	limit := filter.EffectiveLimit()
	cursor := parseCursor(filter.Cursor)

	w := &whereBuilder{}
	w.in("category_id", uuidArgs(filter.CategoryIDs))
	if cursor != nil {
		w.add("id > " + w.next(*cursor))
	}
	w.in("id", uuidArgs(filter.IDs))
	w.in("connector_type", stringArgs(filter.ConnectorTypes))
	w.in("coding", stringArgs(filter.Codes))
	w.in("ip_rating", stringArgs(filter.DegreesOfProtection))
	w.in("pins", intArgs(filter.Pins))
	w.in("gender", stringArgs(filter.Genders))
	if filter.InStock {
		w.add("in_stock = TRUE")
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		p := w.next(likePattern(term))
		w.add(fmt.Sprintf("(name ILIKE %[1]s OR sku ILIKE %[1]s OR description ILIKE %[1]s OR (mpn IS NOT NULL AND mpn ILIKE %[1]s))", p))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY id ASC
		LIMIT %s
	`, productColumns, w.clause(), w.next(limit+1))

	return query, w.args, cursor, limit
}

// Query returns one page of products matching filter, ordered by id.
// One extra row is fetched to detect whether a next page exists.
func (r *productRepository) Query(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	query, args, cursor, limit := buildProductQuery(filter)

	rows, err := database.QueryWithRetry(ctx, r.db, r.policy, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit+1)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	hasNext := len(products) > limit
	if hasNext {
		products = products[:limit]
	}

	page := &domain.ProductPage{
		Products: products,
		Pagination: domain.Pagination{
			Limit:   limit,
			HasNext: hasNext,
			HasPrev: cursor != nil,
		},
	}
	if hasNext && len(products) > 0 {
		next := products[len(products)-1].ID.String()
		page.Pagination.Cursor = &next
	}

	return page, nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 LIMIT 1`, productColumns)

	rows, err := database.QueryWithRetry(ctx, r.db, r.policy, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to find product by ID: %w", err)
		}
		return nil, ErrProductNotFound
	}

	product, err := scanProduct(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	return &product, nil
}

// FilterOptions lists the distinct non-null values of every filterable column.
func (r *productRepository) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	opts := domain.EmptyFilterOptions()

	columns := []struct {
		column string
		dest   *[]string
	}{
		{"connector_type", &opts.ConnectorTypes},
		{"coding", &opts.Codings},
		{"ip_rating", &opts.IPRatings},
		{"gender", &opts.Genders},
	}

	for _, c := range columns {
		values, err := r.distinctStrings(ctx, c.column)
		if err != nil {
			return nil, err
		}
		*c.dest = values
	}

	pins, err := r.distinctPins(ctx)
	if err != nil {
		return nil, err
	}
	opts.Pins = pins

	return opts, nil
}

func (r *productRepository) distinctStrings(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT %[1]s FROM products
		WHERE %[1]s IS NOT NULL AND %[1]s <> ''
		ORDER BY %[1]s ASC
	`, column)

	rows, err := database.QueryWithRetry(ctx, r.db, r.policy, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s values: %w", column, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s value: %w", column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s values: %w", column, err)
	}
	return values, nil
}

func (r *productRepository) distinctPins(ctx context.Context) ([]int, error) {
	rows, err := database.QueryWithRetry(ctx, r.db, r.policy,
		`SELECT DISTINCT pins FROM products WHERE pins IS NOT NULL ORDER BY pins ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pins values: %w", err)
	}
	defer rows.Close()

	values := []int{}
	for rows.Next() {
		var v sql.NullInt64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan pins value: %w", err)
		}
		values = append(values, int(v.Int64))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pins values: %w", err)
	}
	return values, nil
}
