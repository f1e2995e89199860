// Package metrics defines and registers all custom Prometheus metrics for the
// defect tracker. It is the single source of truth for metric names, labels,
// and help strings.
//
// Collectors register themselves with the default registry via promauto; the
// router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "defects"

// DefectsCreatedTotal counts newly reported defects.
// Label:
//   - priority: "low", "medium", "high", or "critical"
var DefectsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of defects created, by priority.",
	},
	[]string{"priority"},
)

// StatusTransitionsTotal counts successful state machine transitions.
// Labels:
//   - from_status / to_status: the transition edge (e.g. "new" -> "in_progress")
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Total number of successful defect status transitions.",
	},
	[]string{"from_status", "to_status"},
)

// TransitionsRejectedTotal counts transition requests that were refused.
// Label:
//   - reason: "forbidden", "unknown_status", "invalid_transition", or
//     "terminal_requires_manager"
var TransitionsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_rejected_total",
		Help:      "Total number of rejected defect status transition requests.",
	},
	[]string{"reason"},
)

// ExportsTotal counts report exports.
// Label:
//   - format: "csv" or "xlsx"
var ExportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Total number of defect report exports, by format.",
	},
	[]string{"format"},
)
