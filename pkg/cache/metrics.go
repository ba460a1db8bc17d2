package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks lookups that returned a fresh entry
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "met_cache_hits_total",
			Help: "Total number of MET cache hits",
		},
	)

	// CacheMisses tracks lookups that returned nothing usable
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "met_cache_misses_total",
			Help: "Total number of MET cache misses",
		},
		[]string{"reason"}, // "absent", "expired"
	)

	// CacheEntries tracks the number of entries held in memory
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "met_cache_entries",
			Help: "Current number of entries in the MET cache",
		},
	)

	// NotModifiedResponses tracks 304 Not Modified responses
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "met_304_responses_total",
			Help: "Total number of MET 304 Not Modified responses",
		},
	)

	// ConditionalRequestsSent tracks requests sent with If-None-Match
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "met_conditional_requests_total",
			Help: "Total number of conditional requests sent to MET",
		},
	)

	// PersistenceErrors tracks snapshot load/save failures
	PersistenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "met_cache_persistence_errors_total",
			Help: "Total number of cache persistence errors",
		},
		[]string{"operation"}, // "load", "save"
	)
)
