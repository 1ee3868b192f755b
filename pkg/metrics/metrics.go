// Package metrics exposes the Prometheus registry guildkit registers into.
// All metrics are defined in their respective packages (rest, ratelimit,
// cache, pagination) to maintain modularity and avoid circular dependencies.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by guildkit.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads the metrics registered in Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/rest):
//   - guildkit_rest_requests_total{route, status} (Counter): HTTP round trips by route template and status
//   - guildkit_rest_request_duration_seconds{route} (Histogram): Round trip duration
//   - guildkit_rest_errors_total{class} (Counter): Failed attempts by class (client, server, rate_limit, network)
//   - guildkit_rest_circuit_state (Gauge): 0 closed, 1 half-open, 2 open
//   - guildkit_rest_queue_depth (Gauge): Requests waiting for an Execute worker
//
// Retry Metrics (pkg/rest):
//   - guildkit_rest_retries_total{error_class} (Counter): Retry attempts by error class
//   - guildkit_rest_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - guildkit_rest_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/rest/ratelimit):
//   - guildkit_ratelimit_remaining{bucket} (Gauge): Requests left in the bucket's window
//   - guildkit_ratelimit_waits_total{scope} (Counter): Requests delayed by a drained route or global bucket
//   - guildkit_ratelimit_wait_seconds (Histogram): Time spent waiting for resets
//
// Response Cache Metrics (pkg/rest/cache):
//   - guildkit_cache_hits_total{layer="redis"} (Counter): Cache hits
//   - guildkit_cache_misses_total (Counter): Cache misses
//   - guildkit_cache_size_bytes{layer="redis"} (Gauge): Bytes written by the last store
//   - guildkit_cache_not_modified_total (Counter): 304 responses that refreshed an entry
//   - guildkit_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pagination Metrics (pkg/pagination):
//   - guildkit_pagination_pages_total{endpoint} (Counter): Pages fetched
//   - guildkit_pagination_elements_total{endpoint} (Counter): Elements decoded
//   - guildkit_pagination_decode_failures_total{endpoint} (Counter): Elements dropped on decode failure
//   - guildkit_pagination_fetch_errors_total{endpoint} (Counter): Failed page requests
//   - guildkit_pagination_exhausted_total{endpoint} (Counter): Traversals that reached the end
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(guildkit_cache_hits_total[5m])) /
//   (sum(rate(guildkit_cache_hits_total[5m])) + sum(rate(guildkit_cache_misses_total[5m])))
//
//   # Elements per page by endpoint
//   rate(guildkit_pagination_elements_total[5m]) / rate(guildkit_pagination_pages_total[5m])
//
//   # 429 rate
//   rate(guildkit_rest_requests_total{status="429"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(guildkit_rest_request_duration_seconds_bucket[5m]))
