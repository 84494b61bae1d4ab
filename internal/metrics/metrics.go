// Package metrics defines the Prometheus metrics exported at /metrics.
//
// Request and denial counters are registered with the default registry at
// package init. Store gauges are computed on scrape by StoreCollector, which
// the server registers once it has a database handle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tasktracker"

// HTTPRequestsTotal counts finished requests.
// Labels:
//   - method: HTTP method
//   - route: the matched gin route pattern (e.g. "/api/tasks/:id"), "unmatched" otherwise
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency by route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// PermissionDeniedTotal counts authorization refusals.
// Label:
//   - action: the guarded operation (e.g. "task.delete")
var PermissionDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_denied_total",
		Help:      "Total number of operations refused by the authorization rules.",
	},
	[]string{"action"},
)

// LoginAttemptsTotal counts login attempts.
// Labels:
//   - method: "local" or "ldap"
//   - success: "true" or "false"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by method and outcome.",
	},
	[]string{"method", "success"},
)

// RecordPermissionDenied increments the denial counter for action.
func RecordPermissionDenied(action string) {
	PermissionDeniedTotal.WithLabelValues(action).Inc()
}

// RecordLogin increments the login counter.
func RecordLogin(method string, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	LoginAttemptsTotal.WithLabelValues(method, s).Inc()
}
