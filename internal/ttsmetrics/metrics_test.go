package ttsmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttsrelay/ttschain/internal/chain"
	"github.com/ttsrelay/ttschain/internal/googletts"
)

func TestRecorder_OnCircuitTransitionSetsGaugeAndCountsOpens(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg, "ttschain_test")

	r.OnCircuitTransition("google-cloud", chain.StatusClosed, chain.StatusOpen)
	assert.Equal(t, float64(chain.StatusOpen), testutil.ToFloat64(r.breakerState.WithLabelValues("google-cloud")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.breakerOpens.WithLabelValues("google-cloud")))

	r.OnCircuitTransition("google-cloud", chain.StatusOpen, chain.StatusHalfOpen)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.breakerOpens.WithLabelValues("google-cloud")), "only transitions into Open increment the opens counter")
}

func TestRecorder_OnKeyTransitionSetsGaugeAndCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg, "ttschain_test")

	r.OnKeyTransition("primary", googletts.KeyAvailable, googletts.KeyRateLimited)
	assert.Equal(t, float64(googletts.KeyRateLimited), testutil.ToFloat64(r.keyState.WithLabelValues("primary")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.keyTransitions.WithLabelValues("primary", "rate_limited")))
}

func TestRecorder_RecordAttempt(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg, "ttschain_test")

	r.RecordAttempt("google-cloud", "success")
	r.RecordAttempt("google-cloud", "success")
	r.RecordAttempt("offline", "failure")

	assert.Equal(t, float64(2), testutil.ToFloat64(r.attemptsTotal.WithLabelValues("google-cloud", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.attemptsTotal.WithLabelValues("offline", "failure")))
}

func TestNewRecorder_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { NewRecorder(reg, "ttschain_test") })

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families, "no samples recorded yet, but registration must not panic or error")
}
