// Package metrics holds the Prometheus collectors for the marketplace.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CoinsMoved counts committed coin movements by ledger entry type.
	CoinsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "microearn",
		Name:      "coins_moved_total",
		Help:      "Coins moved through the ledger, by entry type.",
	}, []string{"entry_type"})

	// Transitions counts committed state changes by entity and target status.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "microearn",
		Name:      "transitions_total",
		Help:      "Entity status transitions, by entity and new status.",
	}, []string{"entity", "status"})

	// NotificationsDropped counts events the sink could not enqueue.
	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "microearn",
		Name:      "notifications_dropped_total",
		Help:      "Notification events that failed to enqueue.",
	})

	// HTTPDuration observes request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "microearn",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Transition records one committed status change.
func Transition(entity, status string) {
	Transitions.WithLabelValues(entity, status).Inc()
}

// Coins records a committed coin movement.
func Coins(entryType string, amount int64) {
	if amount < 0 {
		amount = -amount
	}
	CoinsMoved.WithLabelValues(entryType).Add(float64(amount))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
