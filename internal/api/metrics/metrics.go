// Package metrics defines and registers all custom Prometheus metrics for the
// commerce API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "commerce"

// ── Checkout metrics ──────────────────────────────────────────────────────────

// CheckoutsTotal counts checkout attempts.
// Label:
//   - result: "success", "cart_not_found", "user_not_found", "in_progress" or "error"
var CheckoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Total number of checkout attempts, by result.",
	},
	[]string{"result"},
)

// CheckoutAmount observes receipt totals of successful checkouts.
var CheckoutAmount = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_amount",
		Help:      "Total amount charged per successful checkout.",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	},
)

// CheckoutDuration measures checkout latency end-to-end, lock included.
var CheckoutDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Duration of checkout from lock acquisition to cart removal.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login and refresh attempts.
// Labels:
//   - kind: "login" or "refresh"
//   - result: "success", "user_not_found", "invalid_credentials", "unauthenticated" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of token issuance attempts, by kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Cart cleanup metrics ──────────────────────────────────────────────────────

// CartCleanupTotal counts outcomes of deferred cart removals.
// Label:
//   - result: "deleted", "superseded", "retry", "failed" or "dropped"
var CartCleanupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_cleanup_total",
		Help:      "Total number of deferred cart removal outcomes.",
	},
	[]string{"result"},
)

// CartCleanupQueueDepth tracks pending cleanups in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var CartCleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cart_cleanup_queue_depth",
		Help:      "Current number of cart cleanups pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
