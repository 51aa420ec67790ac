package domain

const (
	// DefaultPageSize is used when a filter carries no limit.
	DefaultPageSize = 10
	// MinPageSize and MaxPageSize bound every product page.
	MinPageSize = 1
	MaxPageSize = 100
)

// ProductFilter is the structured listing request handed from the HTTP layer
// to the catalog. Multi-valued fields match OR within the field and AND across
// fields; empty fields impose no constraint. A nil Limit means the caller did not ask for a page size.
type ProductFilter struct {
	CategoryIDs         []string `json:"categoryId,omitempty"`
	ConnectorTypes      []string `json:"connectorType,omitempty"`
	Codes               []string `json:"code,omitempty"`
	DegreesOfProtection []string `json:"degreeOfProtection,omitempty"`
	Pins                []int    `json:"pins,omitempty"`
	Genders             []string `json:"gender,omitempty"`
	InStock             bool     `json:"inStock,omitempty"`
	Search              string   `json:"search,omitempty"`
	Cursor              string   `json:"cursor,omitempty"`
	Limit               *int     `json:"limit,omitempty"`
	IDs                 []string `json:"ids,omitempty"`
}

// EffectiveLimit clamps the requested page size into [MinPageSize, MaxPageSize].
func (f ProductFilter) EffectiveLimit() int {
	if f.Limit == nil {
		return DefaultPageSize
	}
	limit := *f.Limit
	if limit < MinPageSize {
		return MinPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// Pagination describes the position of a page in a forward-only cursor walk.
// Cursor is the id to pass back for the next page, nil on the last page.
type Pagination struct {
	Limit   int     `json:"limit"`
	Cursor  *string `json:"cursor"`
	HasNext bool    `json:"hasNext"`
	HasPrev bool    `json:"hasPrev"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// EmptyProductPage is the well-formed "no results" page.
func EmptyProductPage(limit int) *ProductPage {
	return &ProductPage{
		Products:   []Product{},
		Pagination: Pagination{Limit: limit},
	}
}

// FilterOptions lists the distinct values currently present for each filterable field.
type FilterOptions struct {
	ConnectorTypes []string `json:"connectorTypes"`
	Codings        []string `json:"codings"`
	IPRatings      []string `json:"ipRatings"`
	Pins           []int    `json:"pins"`
	Genders        []string `json:"genders"`
}

// EmptyFilterOptions returns options with every list present but empty.
func EmptyFilterOptions() *FilterOptions {
	return &FilterOptions{
		ConnectorTypes: []string{},
		Codings:        []string{},
		IPRatings:      []string{},
		Pins:           []int{},
		Genders:        []string{},
	}
}

// CategoryQuery selects a page of categories.
type CategoryQuery struct {
	Search string
	Limit  int
	Page   int
}

const (
	DefaultCategoryLimit = 1000
	MaxCategoryLimit     = 1000
)

// Normalize applies the category paging defaults and bounds.
func (q CategoryQuery) Normalize() CategoryQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultCategoryLimit
	}
	if q.Limit > MaxCategoryLimit {
		q.Limit = MaxCategoryLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// CategoryList is a page of categories with the total match count.
type CategoryList struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}
