// Package metrics defines and registers the custom Prometheus metrics of the
// RBAC service. It is the single source of truth for metric names, labels,
// and help strings. All collectors register with the default registry on
// package init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rbac"

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
// Labels:
//   - method: HTTP verb
//   - route: the matched route pattern (e.g. "/api/roles/:id"), never the raw path
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures handler latency including middlewares below it.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login outcomes.
// Label:
//   - result: "success", "invalid_credentials", "throttled" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// UsersRegisteredTotal counts created accounts.
// Label:
//   - source: "signup" or "admin"
var UsersRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of user accounts created, by source.",
	},
	[]string{"source"},
)

// ── Access metrics ────────────────────────────────────────────────────────────

// AccessChecksTotal counts has-access decisions.
// Label:
//   - result: "granted" or "denied"
var AccessChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_checks_total",
		Help:      "Total number of module access checks, by decision.",
	},
	[]string{"result"},
)

// RoleMutationsTotal counts successful role writes.
// Label:
//   - op: "create", "update", "delete", "add_modules", "remove_modules"
var RoleMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_mutations_total",
		Help:      "Total number of successful role mutations, by operation.",
	},
	[]string{"op"},
)

// ── Bulk metrics ──────────────────────────────────────────────────────────────

// BulkOperationsTotal counts bulk update operations.
// Labels:
//   - mode: "uniform" or "varied"
//   - outcome: "ok" or "failed" (per operation for varied requests)
var BulkOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bulk_operations_total",
		Help:      "Total number of bulk update operations, by mode and outcome.",
	},
	[]string{"mode", "outcome"},
)

// BulkRecordsModifiedTotal sums records changed by bulk updates.
var BulkRecordsModifiedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bulk_records_modified_total",
		Help:      "Total number of user records modified by bulk updates.",
	},
	[]string{"mode"},
)
