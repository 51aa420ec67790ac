package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fallbacks counts reads answered with an empty result after a store failure
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fallbacks_total",
			Help: "Total number of catalog reads degraded to an empty result",
		},
		[]string{"operation"},
	)

	// StoreQueries counts reads that reached the relational store
	StoreQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_store_queries_total",
			Help: "Total number of catalog reads served by the database",
		},
		[]string{"operation"},
	)

	// SharedLoads counts misses that reused an in-flight load for the same key
	SharedLoads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_singleflight_shared_total",
			Help: "Total number of cache misses served by a concurrent identical load",
		},
	)
)
