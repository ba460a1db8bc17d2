// Package metrics exposes the Prometheus registry used by the MET client.
// Collectors are defined in their own packages (client, cache) and
// registered via promauto; this package serves them over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gatherer is the gatherer served by Handler. promauto registers every MET
// collector with the default registry, which this gathers from.
var Gatherer = prometheus.DefaultGatherer

// Handler returns an http.Handler serving every registered collector in
// the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - met_cache_hits_total (Counter): fresh cache hits
//   - met_cache_misses_total{reason} (Counter): misses, reason "absent" or "expired"
//   - met_cache_entries (Gauge): entries currently held in memory
//   - met_304_responses_total (Counter): 304 Not Modified responses
//   - met_conditional_requests_total (Counter): requests sent with If-None-Match
//   - met_cache_persistence_errors_total{operation} (Counter): failed snapshot load/save
//
// Request Metrics (pkg/client):
//   - met_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - met_request_duration_seconds{endpoint} (Histogram): request duration by endpoint
//   - met_errors_total{class} (Counter): errors by class (client, server, network)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(met_cache_hits_total[5m])) /
//   (sum(rate(met_cache_hits_total[5m])) + sum(rate(met_cache_misses_total[5m])))
//
//   # Revalidation savings
//   rate(met_304_responses_total[5m]) / rate(met_conditional_requests_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(met_request_duration_seconds_bucket[5m]))
