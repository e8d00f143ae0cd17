// Package ttsmetrics provides optional Prometheus instrumentation for the
// orchestrator and multi-key client, following the promauto-registered
// Counter/Gauge convention used for LLM-router observability in the
// retrieved example pack, and the Collector-per-instance style the teacher
// library itself demonstrates in its own examples/prometheus.
//
// Wiring this package is opt-in: CircuitState and KeyPool only call a hook
// function, so a caller that never constructs a Recorder pays nothing
// beyond a nil check per state transition.
package ttsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ttsrelay/ttschain/internal/chain"
	"github.com/ttsrelay/ttschain/internal/googletts"
)

// Recorder owns the Prometheus collectors for one ProviderChain instance.
// Register it with a prometheus.Registerer, then pass its hook methods to
// CircuitState.SetOnTransition / KeyPool.SetOnTransition for every provider
// and key pool you want observed.
type Recorder struct {
	breakerState   *prometheus.GaugeVec
	breakerOpens   *prometheus.CounterVec
	keyState       *prometheus.GaugeVec
	keyTransitions *prometheus.CounterVec
	attemptsTotal  *prometheus.CounterVec
}

// NewRecorder builds a Recorder with the given metric name prefix (e.g.
// "ttschain") and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer, namespace string) *Recorder {
	r := &Recorder{
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_circuit_state",
			Help:      "Current circuit state per provider (0=closed, 1=half-open, 2=open).",
		}, []string{"provider"}),
		breakerOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_circuit_opens_total",
			Help:      "Number of times a provider's circuit transitioned to open.",
		}, []string{"provider"}),
		keyState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "apikey_state",
			Help:      "Current state per API key (0=available,1=rate_limited,2=quota_exceeded,3=invalid,4=temporary_error).",
		}, []string{"key"}),
		keyTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "apikey_transitions_total",
			Help:      "Number of API key state transitions, labeled by the resulting state.",
		}, []string{"key", "to"}),
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Number of synthesis attempts per provider, labeled by outcome.",
		}, []string{"provider", "outcome"}),
	}

	reg.MustRegister(r.breakerState, r.breakerOpens, r.keyState, r.keyTransitions, r.attemptsTotal)
	return r
}

// OnCircuitTransition is passed to CircuitState.SetOnTransition.
func (r *Recorder) OnCircuitTransition(providerName string, _ chain.Status, to chain.Status) {
	r.breakerState.WithLabelValues(providerName).Set(float64(to))
	if to == chain.StatusOpen {
		r.breakerOpens.WithLabelValues(providerName).Inc()
	}
}

// OnKeyTransition is passed to KeyPool.SetOnTransition.
func (r *Recorder) OnKeyTransition(displayName string, _ googletts.KeyState, to googletts.KeyState) {
	r.keyState.WithLabelValues(displayName).Set(float64(to))
	r.keyTransitions.WithLabelValues(displayName, to.String()).Inc()
}

// RecordAttempt records one AttemptRecord's outcome, typically called from
// application code after inspecting a SynthesisResult's Attempts list (the
// chain itself has no Prometheus dependency — see DESIGN.md).
func (r *Recorder) RecordAttempt(providerName, outcome string) {
	r.attemptsTotal.WithLabelValues(providerName, outcome).Inc()
}
