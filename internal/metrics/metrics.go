package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the Prometheus instruments of the delivery path.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SendOutcomes        *prometheus.CounterVec
	SendDuration        prometheus.Histogram
	RegistrationsHealed *prometheus.CounterVec
}

// New registers all instruments with reg. Pass a fresh prometheus.Registry
// in tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SendOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcm_send_outcomes_total",
			Help: "Classified outcomes of single-registration GCM sends.",
		}, []string{"outcome"}),

		SendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gcm_send_duration_seconds",
			Help:    "Latency of one GCM send, from request to classified outcome.",
			Buckets: prometheus.DefBuckets,
		}),

		RegistrationsHealed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcm_registrations_healed_total",
			Help: "Registration ids removed or replaced after GCM feedback.",
		}, []string{"action"}),
	}

	reg.MustRegister(m.SendOutcomes, m.SendDuration, m.RegistrationsHealed)
	return m
}

// ObserveSend records one send under the given outcome label.
func (m *Metrics) ObserveSend(outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.SendOutcomes.WithLabelValues(outcome).Inc()
	m.SendDuration.Observe(latency.Seconds())
}

// ObserveHealed records a store correction; action is "unregister" or "replace".
func (m *Metrics) ObserveHealed(action string) {
	if m == nil {
		return
	}
	m.RegistrationsHealed.WithLabelValues(action).Inc()
}
