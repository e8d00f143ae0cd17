package chain

import "context"

// ProviderAvailability is a Provider's self-reported health, returned by
// Info(). It is distinct from the chain-owned circuit Status: a provider
// can report itself Degraded while its breaker is still Closed, and vice
// versa — the chain's breaker state is derived purely from observed
// synthesis outcomes, never from Info().
type ProviderAvailability int

const (
	ProviderAvailable ProviderAvailability = iota
	ProviderUnavailable
	ProviderDegraded
	ProviderDisabled
)

func (a ProviderAvailability) String() string {
	switch a {
	case ProviderAvailable:
		return "available"
	case ProviderUnavailable:
		return "unavailable"
	case ProviderDegraded:
		return "degraded"
	case ProviderDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ProviderInfo is the self-reported status from the Provider contract
// (spec §6.3).
type ProviderInfo struct {
	Name            string
	Status          ProviderAvailability
	LastSuccessTime *int64 // unix nanoseconds; nil if never succeeded
	SupportedVoices []string
}

// Provider is the boundary to non-core adapters (spec §6.3). Every backend
// — HTTPS/REST, WebSocket, local subprocess, ONNX inference, or the
// multi-key Google client — implements this interface identically as far
// as ProviderChain is concerned.
//
// Synthesize must never panic on expected failures (network error, auth
// error, no audio returned): return a SynthesisResult with Success=false
// and a non-empty ErrorMessage, with ProviderUsed set to the provider's own
// Name. It may still raise on exceptional conditions; the chain classifies
// any raise identically to an ordinary failure (spec §4.3 step 2), except
// for a cancellation fault (errors.Is(err, chain.Cancellation) via panic
// value, or — more commonly — by returning ctx.Err() wrapped with
// chain.Cancellation from a non-panicking implementation; see
// googletts.MultiKeyClient for the latter style).
type Provider interface {
	// Name is this provider's stable, case-insensitive-unique identifier.
	Name() string

	// Synthesize performs the synthesis. ctx carries the cancellation
	// handle threaded through ProviderChain.Synthesize.
	Synthesize(ctx context.Context, req *SynthesisRequest) (*SynthesisResult, error)

	// Info reports the provider's self-assessed health.
	Info() ProviderInfo
}
