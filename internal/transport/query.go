package transport

import (
	"net/url"
	"strconv"
	"strings"

	"connector-catalog/internal/domain"
)

// ProductQuery is the raw query string of GET /api/products before it is
// reduced to a domain.ProductFilter.
type ProductQuery struct {
	CategoryIDs         []string `query:"categoryId"`
	CategorySlug        string   `query:"category" validate:"max=200"`
	ConnectorTypes      []string `query:"connectorType" validate:"dive,max=100"`
	Codes               []string `query:"code" validate:"dive,max=100"`
	DegreesOfProtection []string `query:"degreeOfProtection" validate:"dive,max=100"`
	Pins                []int    `query:"pins"`
	Genders             []string `query:"gender" validate:"dive,max=100"`
	InStock             bool     `query:"inStock"`
	Search              string   `query:"search" validate:"max=200"`
	Cursor              string   `query:"cursor"`
	Limit               *int     `query:"limit"`
	IDs                 []string `query:"ids"`
}

// ParseProductQuery reads every supported parameter. Multi-valued
// parameters accept comma-separated lists, repetition, or both.
func ParseProductQuery(values url.Values) ProductQuery {
	return ProductQuery{
		CategoryIDs:         multiValue(values, "categoryId"),
		CategorySlug:        strings.TrimSpace(values.Get("category")),
		ConnectorTypes:      multiValue(values, "connectorType"),
		Codes:               multiValue(values, "code"),
		DegreesOfProtection: multiValue(values, "degreeOfProtection"),
		Pins:                intValues(multiValue(values, "pins")),
		Genders:             multiValue(values, "gender"),
		InStock:             values.Get("inStock") == "true",
		Search:              values.Get("search"),
		Cursor:              strings.TrimSpace(values.Get("cursor")),
		Limit:               optionalInt(values.Get("limit")),
		IDs:                 multiValue(values, "ids"),
	}
}

// Filter converts the query into the catalog filter.
func (q ProductQuery) Filter() domain.ProductFilter {
	return domain.ProductFilter{
		CategoryIDs:         q.CategoryIDs,
		ConnectorTypes:      q.ConnectorTypes,
		Codes:               q.Codes,
		DegreesOfProtection: q.DegreesOfProtection,
		Pins:                q.Pins,
		Genders:             q.Genders,
		InStock:             q.InStock,
		Search:              q.Search,
		Cursor:              q.Cursor,
		Limit:               q.Limit,
		IDs:                 q.IDs,
	}
}

// CategoryQuery is the raw query string of GET /api/categories.
type CategoryQuery struct {
	Search string `query:"search" validate:"max=200"`
	Limit  int    `query:"limit"`
	Page   int    `query:"page"`
}

// ParseCategoryQuery reads search, limit and page. Unparseable numbers are
// treated as absent and replaced by defaults downstream.
func ParseCategoryQuery(values url.Values) CategoryQuery {
	q := CategoryQuery{Search: strings.TrimSpace(values.Get("search"))}
	if limit := optionalInt(values.Get("limit")); limit != nil {
		q.Limit = *limit
	}
	if page := optionalInt(values.Get("page")); page != nil {
		q.Page = *page
	}
	return q
}

func (q CategoryQuery) toDomain() domain.CategoryQuery {
	return domain.CategoryQuery{Search: q.Search, Limit: q.Limit, Page: q.Page}
}

func multiValue(values url.Values, key string) []string {
	var out []string
	for _, raw := range values[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// intValues drops entries that are not integers.
func intValues(raw []string) []int {
	var out []int
	for _, s := range raw {
		if n, err := strconv.Atoi(s); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func optionalInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
