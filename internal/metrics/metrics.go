// Package metrics exposes Prometheus instruments for scheduling outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulingMetrics counts bookings, rejections and cancellations. A nil
// *SchedulingMetrics records nothing.
type SchedulingMetrics struct {
	scheduledTotal     *prometheus.CounterVec
	rejectionsTotal    *prometheus.CounterVec
	cancellationsTotal *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
}

// NewSchedulingMetrics registers the instruments on reg, or on the default
// registerer when reg is nil.
func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		scheduledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "appointments_scheduled_total",
			Help:      "Appointments booked, by practitioner selection mode",
		}, []string{"selection"}),
		rejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "rejections_total",
			Help:      "Requests rejected, by operation and error kind",
		}, []string{"operation", "kind"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "cancellations_total",
			Help:      "Appointments cancelled, by reason",
		}, []string{"reason"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "operation_duration_seconds",
			Help:      "Latency of scheduling service operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.scheduledTotal, m.rejectionsTotal, m.cancellationsTotal, m.operationDuration)
	return m
}

func (m *SchedulingMetrics) ObserveScheduled(selection string) {
	if m == nil {
		return
	}
	m.scheduledTotal.WithLabelValues(selection).Inc()
}

func (m *SchedulingMetrics) ObserveRejection(operation, kind string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(operation, kind).Inc()
}

func (m *SchedulingMetrics) ObserveCancelled(reason string) {
	if m == nil {
		return
	}
	m.cancellationsTotal.WithLabelValues(reason).Inc()
}

func (m *SchedulingMetrics) ObserveDuration(operation string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
