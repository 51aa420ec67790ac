package catalog

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"connector-catalog/internal/domain"

	"github.com/google/uuid"
)

// Key namespaces. Every cache key starts with exactly one of these, so a
// whole group can be purged with a prefix delete.
const (
	ProductListPrefix   = "products|"
	ProductPrefix       = "product:"
	CategoryPrefix      = "category:"
	CategoryListPrefix  = "categories:"
	FilterOptionsPrefix = "filter-options:"
)

// Prefixes lists every namespace the catalog writes to.
var Prefixes = []string{
	ProductListPrefix,
	ProductPrefix,
	CategoryPrefix,
	CategoryListPrefix,
	FilterOptionsPrefix,
}

// Cacheable reports whether a listing may be served from or written to the
// cache. Search, cursor and explicit id queries never are.
func Cacheable(f domain.ProductFilter) bool {
	return strings.TrimSpace(f.Search) == "" && f.Cursor == "" && len(f.IDs) == 0
}

// ProductsCacheKey derives the cache key for a listing. The second result is
// false when the filter must bypass the cache, in which case the key is empty.
//
// Multi-valued fields are trimmed, deduplicated and sorted, so permutations of
// the same filter share a key. Values are query-escaped before joining, so no
// value can forge a separator.
func ProductsCacheKey(f domain.ProductFilter) (string, bool) {
	if !Cacheable(f) {
		return "", false
	}
	return productsKey(f), true
}

func productsKey(f domain.ProductFilter) string {
	var parts []string

	addSet := func(name string, values []string) {
		if joined := joinSet(values); joined != "" {
			parts = append(parts, name+":"+joined)
		}
	}

	addSet("cat", f.CategoryIDs)
	addSet("conn", f.ConnectorTypes)
	addSet("code", f.Codes)
	addSet("ip", f.DegreesOfProtection)
	if pins := joinPins(f.Pins); pins != "" {
		parts = append(parts, "pins:"+pins)
	}
	addSet("gen", f.Genders)
	if f.InStock {
		parts = append(parts, "stock:true")
	}
	if f.Cursor != "" {
		parts = append(parts, "cursor:"+url.QueryEscape(f.Cursor))
	}
	if f.Limit != nil {
		parts = append(parts, "limit:"+strconv.Itoa(f.EffectiveLimit()))
	}
	addSet("ids", f.IDs)

	if len(parts) == 0 {
		return ProductListPrefix + "all"
	}
	return ProductListPrefix + strings.Join(parts, "|")
}

func joinSet(values []string) string {
	if len(values) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, url.QueryEscape(v))
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func joinPins(pins []int) string {
	if len(pins) == 0 {
		return ""
	}
	sorted := append([]int(nil), pins...)
	sort.Ints(sorted)

	out := make([]string, 0, len(sorted))
	for i, p := range sorted {
		if i > 0 && p == sorted[i-1] {
			continue
		}
		out = append(out, strconv.Itoa(p))
	}
	return strings.Join(out, ",")
}

// ProductKey is the per-product detail key.
func ProductKey(id uuid.UUID) string {
	return ProductPrefix + id.String()
}

func CategorySlugKey(slug string) string {
	return CategoryPrefix + "slug:" + slug
}

func CategoryIDKey(id uuid.UUID) string {
	return CategoryPrefix + "id:" + id.String()
}

// CategoriesKey keys an unsearched category page by its normalized limit and page.
func CategoriesKey(limit, page int) string {
	return CategoryListPrefix + strconv.Itoa(limit) + ":" + strconv.Itoa(page)
}

func FilterOptionsKey() string {
	return FilterOptionsPrefix + "products"
}
