// Package metrics exposes the Prometheus instrumentation for the
// registration engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registration engine's Prometheus collectors. A nil
// *Metrics is valid and records nothing, so components never need to guard
// their instrumentation calls.
type Metrics struct {
	RegistrationsTotal   *prometheus.CounterVec
	AllocationRetries    prometheus.Counter
	ExternalCallDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "alumnic_registrations_total",
			Help: "Registration attempts by final outcome",
		}, []string{"outcome"}),
		AllocationRetries: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "alumnic_id_allocation_retries_total",
			Help: "Retries of the directory id counter allocation due to contention",
		}),
		ExternalCallDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alumnic_external_call_duration_seconds",
			Help:    "Duration of calls to the directory and the authentication portal",
			Buckets: prometheus.DefBuckets,
		}, []string{"system"}),
	}
}

// ObserveRegistration counts a finished registration attempt.
func (m *Metrics) ObserveRegistration(outcome string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(outcome).Inc()
}

// IncAllocationRetry counts one failed id counter modify.
func (m *Metrics) IncAllocationRetry() {
	if m == nil {
		return
	}
	m.AllocationRetries.Inc()
}

// ObserveExternalCall records the duration of one external round trip.
func (m *Metrics) ObserveExternalCall(system string, d time.Duration) {
	if m == nil {
		return
	}
	m.ExternalCallDuration.WithLabelValues(system).Observe(d.Seconds())
}
