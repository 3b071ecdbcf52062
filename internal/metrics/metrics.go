// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teranga_orders_created_total",
			Help: "Orders placed, by channel",
		},
		[]string{"channel"},
	)

	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teranga_order_transitions_total",
			Help: "Committed order status transitions",
		},
		[]string{"from", "to"},
	)

	// DomainErrors counts rejected operations by error kind.
	DomainErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teranga_domain_errors_total",
			Help: "Operations rejected with a domain error, by kind",
		},
		[]string{"operation", "kind"},
	)

	SessionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "teranga_table_sessions_opened_total",
		Help: "Table sessions created by a QR scan or staff action",
	})

	StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teranga_stock_movements_total",
			Help: "Stock ledger entries written, by reason",
		},
		[]string{"reason"},
	)

	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teranga_jobs_processed_total",
			Help: "Background jobs handled, by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "teranga_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)
)

var once sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDurationHistogram,
			OrdersCreated,
			OrderTransitions,
			DomainErrors,
			SessionsOpened,
			StockMovements,
			JobsProcessed,
			BreakerState,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
