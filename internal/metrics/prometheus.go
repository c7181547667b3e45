package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay outcomes used as the "outcome" label.
const (
	OutcomeRelayed       = "relayed"
	OutcomeFailed        = "failed"
	OutcomeNotConfigured = "not_configured"
)

var (
	// RequestsTotal tracks total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// PurchaseRequestsTotal counts submissions by handler result
	// (accepted, rejected, recorded_locally, not_recorded).
	PurchaseRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_requests_total",
			Help: "Purchase requests received, by result",
		},
		[]string{"result"},
	)

	// RelayAttempts counts relay outcomes.
	RelayAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_attempts_total",
			Help: "Relay attempts to the spreadsheet endpoint, by outcome",
		},
		[]string{"outcome"},
	)

	// RelayDuration tracks how long the outbound call took.
	RelayDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_duration_seconds",
			Help:    "Duration of the outbound spreadsheet call",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)

	// FallbackRecords counts records diverted to the fallback store.
	FallbackRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fallback_records_total",
			Help: "Records appended to the fallback store",
		},
	)
)

// PrometheusMiddleware creates a Gin middleware for automatic metrics collection
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		RequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, c.FullPath()).Observe(duration)
	}
}
