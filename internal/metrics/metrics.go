package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cycle metrics
	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricewatcher_cycles_total",
			Help: "Total number of verification cycles started",
		},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricewatcher_cycle_duration_seconds",
			Help:    "Wall time of a verification cycle",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	AlertChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatcher_alert_checks_total",
			Help: "Total number of per-alert check attempts",
		},
		[]string{"status"}, // status: success, no_match, failure
	)

	// Trigger metrics
	TriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatcher_triggers_total",
			Help: "Total number of fired triggers",
		},
		[]string{"kind"}, // kind: drop, rise
	)

	NotifyFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricewatcher_notify_failures_total",
			Help: "Total number of trigger notifications that could not be delivered",
		},
	)

	// Collaborator metrics
	SearchFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricewatcher_search_failures_total",
			Help: "Total number of storefront searches that failed after retries",
		},
	)

	ParseFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricewatcher_price_parse_failures_total",
			Help: "Total number of listings whose price text could not be normalized",
		},
	)
)
