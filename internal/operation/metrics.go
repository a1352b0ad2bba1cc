package operation

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds the operation metrics. It is separate from the
// default registry so textfile output carries no Go runtime metrics.
var MetricsRegistry = prometheus.NewRegistry()

var (
	factory = promauto.With(MetricsRegistry)

	requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conductor_ntfy_operation_requests_total",
			Help: "Total integration operations by connector, operation and status",
		},
		[]string{"connector", "operation", "status"},
	)

	requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conductor_ntfy_operation_duration_seconds",
			Help:    "Duration of integration operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"connector", "operation"},
	)

	errorsByType = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conductor_ntfy_operation_errors_total",
			Help: "Total integration operation errors by type",
		},
		[]string{"connector", "error_type"},
	)
)

// RecordRequest records one operation execution. statusCode is the HTTP
// status received, or zero when no response arrived.
func RecordRequest(connector, operation string, statusCode int, duration time.Duration) {
	requestsTotal.WithLabelValues(connector, operation, statusLabel(statusCode)).Inc()
	requestDuration.WithLabelValues(connector, operation).Observe(duration.Seconds())
}

// RecordError counts a failed operation by error type.
func RecordError(connector string, errType ErrorType) {
	if errType == "" {
		return
	}
	errorsByType.WithLabelValues(connector, string(errType)).Inc()
}

// WriteMetricsFile writes the operation metrics to path in the Prometheus
// text format, suitable for the node_exporter textfile collector. The file is
// replaced atomically.
func WriteMetricsFile(path string) error {
	return prometheus.WriteToTextfile(path, MetricsRegistry)
}

func statusLabel(statusCode int) string {
	if statusCode == 0 {
		return "error"
	}
	return strconv.Itoa(statusCode)
}
