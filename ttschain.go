// Package ttschain is a multi-provider text-to-speech synthesis
// orchestrator: a provider-chain with per-provider circuit breakers and a
// multi-key rotating cloud client.
//
// # Overview
//
// A ProviderChain accepts a SynthesisRequest and, given a configured
// ordered list of backend Providers, attempts each in turn until one
// succeeds. Each provider carries its own three-state circuit breaker
// (Closed/HalfOpen/Open) so that a known-bad backend is fast-failed rather
// than retried on every request, and recovers automatically after a
// cooldown.
//
// # Quick Start
//
//	clock := ttschain.NewSystemClock()
//	registry := ttschain.NewProviderRegistry(clock,
//	    ttschain.RegistryEntry{Provider: cloudProvider, Config: ttschain.ProviderConfig{
//	        Name: "google-cloud", Priority: 1, Enabled: true,
//	        Breaker: ttschain.BreakerConfig{FailureThreshold: 3, ResetTimeout: 30 * time.Second},
//	    }},
//	    ttschain.RegistryEntry{Provider: offlineProvider, Config: ttschain.ProviderConfig{
//	        Name: "offline", Priority: 100, Enabled: true,
//	        Breaker: ttschain.BreakerConfig{FailureThreshold: ttschain.DisabledBreakerThreshold},
//	    }},
//	)
//	orchestrator := ttschain.New(registry, clock, logger)
//
//	result, err := orchestrator.Synthesize(ctx, &ttschain.SynthesisRequest{Text: "hello"})
//
// # Circuit Breaker Semantics
//
// Unlike a traffic-volume-adaptive breaker, each provider's breaker here
// trips on a fixed consecutive-failure threshold and reopens on a fixed (or
// exponentially backed-off) timeout — see internal/chain for the full
// state machine.
//
// # Multi-Key Cloud Client
//
// internal/googletts implements a Google Cloud Text-to-Speech client that
// rotates among several API keys, applying independent rate-limit / quota /
// temporary-error cooldowns per key and permanently retiring a key that is
// rejected as unauthorized, and presents itself to the chain as a single
// Provider.
//
// # Package Layout
//
//   - internal/chain: Clock, CircuitState, ProviderRegistry, ProviderChain,
//     the Provider contract, and the request/result data model.
//   - internal/googletts: the multi-key Google Cloud TTS client.
//   - internal/offlineprovider: a minimal always-on local fallback Provider.
//   - internal/ttsconfig: YAML + env configuration loading.
//   - internal/ttslog: pluggable structured logging.
//   - internal/ttsmetrics: optional Prometheus instrumentation.
package ttschain

import "github.com/ttsrelay/ttschain/internal/chain"

// Core Types
//
// These re-export internal/chain's public surface so callers outside this
// module (which cannot import internal/ packages) have a single, stable
// import path. The implementation lives in internal/chain; see that package's
// doc comments for full field-level documentation.

// ProviderChain is the orchestrator. See internal/chain.ProviderChain.
type ProviderChain = chain.ProviderChain

// ProviderRegistry is the immutable name→provider mapping. See
// internal/chain.ProviderRegistry.
type ProviderRegistry = chain.ProviderRegistry

// RegistryEntry pairs a Provider with its static ProviderConfig at
// construction time. See internal/chain.RegistryEntry.
type RegistryEntry = chain.RegistryEntry

// Provider is the boundary to non-core adapters. See internal/chain.Provider.
type Provider = chain.Provider

// ProviderInfo is a provider's self-reported health. See
// internal/chain.ProviderInfo.
type ProviderInfo = chain.ProviderInfo

// ProviderAvailability enumerates ProviderInfo.Status values. See
// internal/chain.ProviderAvailability.
type ProviderAvailability = chain.ProviderAvailability

// ProviderConfig is a provider's static wiring. See
// internal/chain.ProviderConfig.
type ProviderConfig = chain.ProviderConfig

// BreakerConfig configures one provider's circuit breaker. See
// internal/chain.BreakerConfig.
type BreakerConfig = chain.BreakerConfig

// Clock is the injectable time source used by every time-driven state
// machine in this module. See internal/chain.Clock.
type Clock = chain.Clock

// Status is a circuit breaker's derived three-state status. See
// internal/chain.Status.
type Status = chain.Status

// SynthesisRequest is the input to ProviderChain.Synthesize. See
// internal/chain.SynthesisRequest.
type SynthesisRequest = chain.SynthesisRequest

// SynthesisResult is the output of ProviderChain.Synthesize. See
// internal/chain.SynthesisResult.
type SynthesisResult = chain.SynthesisResult

// AttemptRecord describes one provider's attempt during a request. See
// internal/chain.AttemptRecord.
type AttemptRecord = chain.AttemptRecord

// Audio is the sum type {Memory, File} carried by a successful
// SynthesisResult. See internal/chain.Audio.
type Audio = chain.Audio

// ProviderStatusSnapshot is one entry of ProviderChain.ProvidersStatus's
// return value. See internal/chain.ProviderStatusSnapshot.
type ProviderStatusSnapshot = chain.ProviderStatusSnapshot

// Error classifies a failure per the taxonomy in spec §7. See
// internal/chain.Error.
type Error = chain.Error

// Kind enumerates Error's taxonomy. See internal/chain.Kind.
type Kind = chain.Kind

// State Constants
//
// The three circuit breaker states a provider's breaker can be observed in.
const (
	StatusClosed   = chain.StatusClosed
	StatusHalfOpen = chain.StatusHalfOpen
	StatusOpen     = chain.StatusOpen
)

// Error Kind Constants
//
// These classify why ProviderChain.Synthesize or a Provider failed; see
// Error.Kind().
const (
	KindValidation           = chain.KindValidation
	KindProviderFailure      = chain.KindProviderFailure
	KindProviderFault        = chain.KindProviderFault
	KindCircuitOpen          = chain.KindCircuitOpen
	KindCancellation         = chain.KindCancellation
	KindKeyExhausted         = chain.KindKeyExhausted
	KindConfigFatal          = chain.KindConfigFatal
	KindNoProvidersAvailable = chain.KindNoProvidersAvailable
)

// Audio Variant Constants
const (
	AudioNone   = chain.AudioNone
	AudioMemory = chain.AudioMemory
	AudioFile   = chain.AudioFile
)

// Provider Availability Constants
const (
	ProviderAvailable   = chain.ProviderAvailable
	ProviderUnavailable = chain.ProviderUnavailable
	ProviderDegraded    = chain.ProviderDegraded
	ProviderDisabled    = chain.ProviderDisabled
)

// DisabledBreakerThreshold is the sentinel FailureThreshold that makes a
// breaker "effectively disabled" — used for a terminal offline fallback
// that must always be attempted. See internal/chain.DisabledBreakerThreshold.
const DisabledBreakerThreshold = chain.DisabledBreakerThreshold

// Cancellation is the sentinel fault a Provider returns to signal
// cancellation rather than failure. See internal/chain.Cancellation.
var Cancellation = chain.Cancellation

// Constructor Functions

// New builds a ProviderChain over registry, using clock for all breaker
// time comparisons and logger for non-fatal diagnostics (nil is valid and
// discards them). See internal/chain.New.
var New = chain.New

// NewProviderRegistry builds an immutable registry from providers paired
// with their static config. See internal/chain.NewProviderRegistry.
var NewProviderRegistry = chain.NewProviderRegistry

// NewSystemClock returns a Clock backed by the real wall clock. See
// internal/chain.NewSystemClock.
var NewSystemClock = chain.NewSystemClock

// NewVirtualClock returns a deterministic Clock for tests. See
// internal/chain.NewVirtualClock.
var NewVirtualClock = chain.NewVirtualClock

// MemoryAudio builds an in-memory Audio value. See internal/chain.MemoryAudio.
var MemoryAudio = chain.MemoryAudio

// FileAudio builds a file-backed Audio value. See internal/chain.FileAudio.
var FileAudio = chain.FileAudio

// IsCancellation reports whether err represents a cancellation fault. See
// internal/chain.IsCancellation.
var IsCancellation = chain.IsCancellation
