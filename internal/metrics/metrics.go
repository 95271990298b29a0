package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingTransitions counts interest status changes by target status.
	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_booking_transitions_total",
			Help: "Total number of interest status transitions",
		},
		[]string{"status"},
	)

	// FinalizeConflicts counts finalize attempts rejected because another interest won the property.
	FinalizeConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_finalize_conflicts_total",
			Help: "Total number of finalize attempts rejected as already finalized",
		},
	)

	// CascadeFailures counts property cascade writes that failed after finalize.
	CascadeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_cascade_failures_total",
			Help: "Total number of failed property cascades after finalize",
		},
		[]string{"step"},
	)

	// NotificationFailures counts best-effort thread writes that failed.
	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_notification_failures_total",
			Help: "Total number of notification thread writes that failed",
		},
		[]string{"type"},
	)

	// ReconciledProperties counts properties repaired by the reconcile task.
	ReconciledProperties = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_reconciled_properties_total",
			Help: "Total number of properties repaired by reconciliation",
		},
	)

	// PurgedThreads counts threads removed after both parties hid them.
	PurgedThreads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_purged_threads_total",
			Help: "Total number of threads purged",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
