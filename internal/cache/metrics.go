package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks successful lookups
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Total number of catalog cache hits",
		},
	)

	// CacheMisses tracks lookups that fell through to the database, by reason
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Total number of catalog cache misses",
		},
		[]string{"reason"}, // "absent", "unavailable", "cancelled", "error"
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_errors_total",
			Help: "Total number of catalog cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "scan", "decode", "encode"
	)

	// CacheState exposes the connection state machine
	CacheState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_cache_state",
			Help: "Cache connection state (0 uninitialized, 1 connecting, 2 ready, 3 degraded)",
		},
	)
)
