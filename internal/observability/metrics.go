// Package observability holds the Prometheus metrics for the parts of
// notifyd outside the Thread Budget's own Metrics Port (which is
// implemented separately in internal/budget.PromMetrics so the core stays
// decoupled from any concrete metrics backend).
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeliveryAttempts counts dispatcher outcomes by provider and outcome.
	DeliveryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifyd_delivery_attempts_total",
		Help: "Total delivery attempts by provider and terminal outcome",
	}, []string{"provider", "outcome"})

	// DeliveryRejections counts attempts dropped before any network call.
	DeliveryRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifyd_delivery_rejections_total",
		Help: "Delivery attempts dropped before dispatch, by reason",
	}, []string{"reason"})

	// DeliveryLatency tracks how long the outbound provider call took.
	DeliveryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifyd_delivery_latency_seconds",
		Help:    "Outbound provider call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	// ConnectedDashboards tracks active admin WebSocket connections.
	ConnectedDashboards = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notifyd_connected_dashboards",
		Help: "Current number of connected operator dashboard WebSocket clients",
	})
)
