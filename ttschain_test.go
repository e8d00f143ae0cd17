package ttschain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttsrelay/ttschain"
	"github.com/ttsrelay/ttschain/internal/offlineprovider"
)

func TestQuickStart_OfflineFallbackAlwaysSucceeds(t *testing.T) {
	clock := ttschain.NewVirtualClock(time.Unix(0, 0))
	registry := ttschain.NewProviderRegistry(clock,
		ttschain.RegistryEntry{
			Provider: offlineprovider.New("offline"),
			Config: ttschain.ProviderConfig{
				Name: "offline", Priority: 1, Enabled: true,
				Breaker: ttschain.BreakerConfig{FailureThreshold: ttschain.DisabledBreakerThreshold},
			},
		},
	)
	orchestrator := ttschain.New(registry, clock, nil)

	result, err := orchestrator.Synthesize(context.Background(), &ttschain.SynthesisRequest{Text: "hello"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "offline", result.ProviderUsed)
}

func TestQuickStart_ValidationErrorIsTypedAndClassified(t *testing.T) {
	clock := ttschain.NewSystemClock()
	registry := ttschain.NewProviderRegistry(clock)
	orchestrator := ttschain.New(registry, clock, nil)

	_, err := orchestrator.Synthesize(context.Background(), &ttschain.SynthesisRequest{Text: ""})
	require.Error(t, err)

	var classified *ttschain.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, ttschain.KindValidation, classified.Kind())
}
