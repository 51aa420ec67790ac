package catalog

import (
	"time"

	"connector-catalog/internal/config"
	"connector-catalog/internal/domain"
)

// TTLPolicy chooses how long each kind of cache entry lives.
type TTLPolicy struct {
	// Filtered applies to listings narrowed by category, connector type or stock.
	Filtered time.Duration
	// Browse applies to every other cacheable listing.
	Browse        time.Duration
	Product       time.Duration
	Category      time.Duration
	FilterOptions time.Duration
}

// DefaultTTLPolicy returns the stock expiries: five minutes for filtered
// listings, one minute for browsing, fifteen minutes for detail reads.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Filtered:      300 * time.Second,
		Browse:        60 * time.Second,
		Product:       900 * time.Second,
		Category:      900 * time.Second,
		FilterOptions: 300 * time.Second,
	}
}

// TTLPolicyFromConfig converts the configured expiries.
func TTLPolicyFromConfig(cfg config.CacheConfig) TTLPolicy {
	return TTLPolicy{
		Filtered:      config.Seconds(cfg.FilteredTTLSeconds),
		Browse:        config.Seconds(cfg.BrowseTTLSeconds),
		Product:       config.Seconds(cfg.ProductTTLSeconds),
		Category:      config.Seconds(cfg.CategoryTTLSeconds),
		FilterOptions: config.Seconds(cfg.FilterOptionsTTLSeconds),
	}
}

// ForProducts returns the listing TTL for filter.
func (p TTLPolicy) ForProducts(f domain.ProductFilter) time.Duration {
	if len(f.CategoryIDs) > 0 || len(f.ConnectorTypes) > 0 || f.InStock {
		return p.Filtered
	}
	return p.Browse
}
