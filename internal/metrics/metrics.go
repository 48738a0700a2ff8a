package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Relay outcomes.
const (
	RelaySent    = "sent"
	RelayInvalid = "invalid"
	RelayFailed  = "failed"
)

// Metrics holds the relay's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Admissions  *prometheus.CounterVec
	Relays      *prometheus.CounterVec
	EvictedKeys prometheus.Counter
	TrackedKeys prometheus.GaugeFunc
}

// New creates and registers the collectors. trackedKeys reports the current
// number of client keys held by the rate limit store.
func New(reg prometheus.Registerer, trackedKeys func() float64) *Metrics {
	m := &Metrics{
		Admissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_relay_admissions_total",
				Help: "Admission decisions made by the rate limit gate",
			},
			[]string{"outcome"},
		),
		Relays: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_relay_messages_total",
				Help: "Contact submissions by outcome",
			},
			[]string{"outcome"},
		),
		EvictedKeys: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contact_relay_ratelimit_evicted_keys_total",
				Help: "Client keys evicted from the rate limit store",
			},
		),
		TrackedKeys: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "contact_relay_ratelimit_tracked_keys",
				Help: "Client keys currently tracked by the rate limit store",
			},
			trackedKeys,
		),
	}

	reg.MustRegister(m.Admissions, m.Relays, m.EvictedKeys, m.TrackedKeys)

	return m
}

// ObserveAdmission counts one gate decision.
func (m *Metrics) ObserveAdmission(allowed bool) {
	if m == nil {
		return
	}

	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}

	m.Admissions.WithLabelValues(outcome).Inc()
}

// ObserveRelay counts one contact submission outcome.
func (m *Metrics) ObserveRelay(outcome string) {
	if m == nil {
		return
	}

	m.Relays.WithLabelValues(outcome).Inc()
}

// ObserveSweep implements store.SweepObserver.
func (m *Metrics) ObserveSweep(evicted, _ int) {
	if m == nil {
		return
	}

	m.EvictedKeys.Add(float64(evicted))
}

// Handler exposes the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
