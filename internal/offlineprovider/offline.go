// Package offlineprovider implements a minimal local "always on" TTS
// backend, standing in for the local-subprocess / ONNX adapters that spec
// §1 places out of scope for the core. It exists in this module to give
// the terminal-fallback pattern from spec §3/§4.3 ("a provider with
// failureThreshold set to a sentinel very large value ... for the terminal
// offline fallback that must always be attempted") a concrete Provider to
// point at in examples and tests.
//
// It does not perform real speech synthesis: it returns a short plain-text
// placeholder describing the request, labeled with the audio/wav content
// type. A real deployment would
// shell out to a local engine (espeak, festival) or an embedded ONNX
// model; that transport is an adapter concern, not this core's.
package offlineprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/ttsrelay/ttschain/internal/chain"
)

// Provider is a stub local fallback implementing chain.Provider. It never
// fails, which is the point: paired with chain.DisabledBreakerThreshold it
// serves as the chain's terminal "this must always work" candidate.
type Provider struct {
	name string
}

// New returns an offline Provider named name (e.g. "offline").
func New(name string) *Provider {
	return &Provider{name: name}
}

// Name implements chain.Provider.
func (p *Provider) Name() string {
	return p.name
}

// Info implements chain.Provider; the offline engine is always considered
// Available since it has no external dependency to degrade.
func (p *Provider) Info() chain.ProviderInfo {
	return chain.ProviderInfo{Name: p.name, Status: chain.ProviderAvailable}
}

// Synthesize implements chain.Provider using the Hz-style pitch and
// percentage-string rate normalization variants from spec §4.6 — the
// variants the Google multi-key client does not exercise — purely to
// demonstrate that a second backend can interpret the same request
// differently without the chain caring.
func (p *Provider) Synthesize(ctx context.Context, req *chain.SynthesisRequest) (*chain.SynthesisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", chain.Cancellation, err)
	}
	start := time.Now()

	rate := chain.RateToPercentageString(req.Rate)
	pitch := chain.PitchToHzString(req.Pitch)
	placeholder := fmt.Sprintf("OFFLINE-TTS rate=%s pitch=%s text=%q", rate, pitch, req.Text)

	return &chain.SynthesisResult{
		Success:        true,
		Audio:          chain.MemoryAudio([]byte(placeholder), "audio/wav"),
		GenerationTime: time.Since(start),
	}, nil
}

var _ chain.Provider = (*Provider)(nil)
