package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Operation results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	LedgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_ledger_operations_total",
			Help: "Total number of fulfillment operations by outcome",
		},
		[]string{"operation", "result"},
	)

	LedgerOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fulfillment_ledger_operation_duration_seconds",
			Help:    "Duration of fulfillment operations including the database transaction",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StockMovementQuantity = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_stock_movement_quantity_total",
			Help: "Committed stock quantity moved, by direction and cause",
		},
		[]string{"direction", "reference_type"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_events_published_total",
			Help: "Domain events handed to the publisher after commit",
		},
		[]string{"event_type", "result"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fulfillment_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	GRPCRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status_code"},
	)

	EventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_events_consumed_total",
			Help: "Total number of domain events handled by the notifier",
		},
		[]string{"event_type", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		LedgerOperations,
		LedgerOperationDuration,
		StockMovementQuantity,
		EventsPublished,
		HTTPRequests,
		HTTPRequestDuration,
		GRPCRequests,
		EventsConsumed,
	)
}

// ObserveOperation records the outcome and latency of one operation.
func ObserveOperation(operation string, start time.Time, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	LedgerOperations.WithLabelValues(operation, result).Inc()
	LedgerOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveMovement records a committed stock movement.
func ObserveMovement(direction, referenceType string, quantity decimal.Decimal) {
	StockMovementQuantity.WithLabelValues(direction, referenceType).Add(quantity.InexactFloat64())
}
