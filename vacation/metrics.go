package vacation

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts lifecycle operations. A nil *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	rejections *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the engine's collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vacation_operations_total",
			Help: "Lifecycle operations by name and outcome (ok, rejected, error)",
		}, []string{"operation", "outcome"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vacation_rejections_total",
			Help: "Business rule rejections by reason",
		}, []string{"reason"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vacation_operation_duration_seconds",
			Help:    "Lifecycle operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Operations exposes the operation counter for scraping in tests.
func (m *Metrics) Operations() *prometheus.CounterVec {
	return m.operations
}

func (m *Metrics) observe(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	switch {
	case err == nil:
		m.operations.WithLabelValues(operation, "ok").Inc()
	case IsBusinessError(err) || IsNotFound(err) || IsPermissionDenied(err):
		m.operations.WithLabelValues(operation, "rejected").Inc()
		m.rejections.WithLabelValues(rejectionReason(err)).Inc()
	default:
		m.operations.WithLabelValues(operation, "error").Inc()
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrBridgeNotAllowed):
		return "bridge"
	case errors.Is(err, ErrInsufficientBalance):
		return "balance"
	case errors.Is(err, ErrOverlap):
		return "overlap"
	case errors.Is(err, ErrTypeLimitExceeded):
		return "type_limit"
	case errors.Is(err, ErrInvalidTransition):
		return "transition"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission"
	}
	return "validation"
}
