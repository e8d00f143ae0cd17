package chain

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ttsrelay/ttschain/internal/ttslog"
)

// ProviderChain is the orchestrator from spec §4.3: it sequences candidate
// providers, consults each one's CircuitState before invoking it, and
// accumulates attempt diagnostics. There is no global lock — concurrency
// safety comes entirely from each CircuitState's own mutex (spec §5).
type ProviderChain struct {
	registry *ProviderRegistry
	clock    Clock
	logger   ttslog.Logger
}

// New builds a ProviderChain over registry. If logger is nil, diagnostics
// (unknown preferred/fallback provider names) are discarded.
func New(registry *ProviderRegistry, clock Clock, logger ttslog.Logger) *ProviderChain {
	if logger == nil {
		logger = ttslog.NewNoop()
	}
	return &ProviderChain{registry: registry, clock: clock, logger: logger}
}

// Synthesize runs the chain algorithm from spec §4.3 steps 1–3.
//
// It revalidates the request minimally (non-empty trimmed text, rate/pitch
// range) before touching any provider. On success it returns the winning
// provider's own result, augmented with attempts accumulated before the
// win. On exhaustion it returns a composite failure listing every attempt.
// A canceled ctx propagates immediately without mutating any breaker.
func (c *ProviderChain) Synthesize(ctx context.Context, req *SynthesisRequest) (*SynthesisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	candidates := c.selectCandidates(ctx, req)
	if len(candidates) == 0 {
		return &SynthesisResult{
			Success:      false,
			ErrorMessage: "No providers available",
			Attempts:     nil,
		}, nil
	}

	var attempts []AttemptRecord

	for _, entry := range candidates {
		status := entry.circuit.observedStatus(c.clock.Now())
		if status == StatusOpen {
			c.logger.Debug(ctx, "circuit open, skipping provider",
				ttslog.F("provider", entry.config.Name),
				ttslog.F("request_id", req.RequestID))
			attempts = append(attempts, AttemptRecord{
				ProviderName: entry.config.Name,
				ErrorMessage: "circuit open",
				Duration:     0,
				RequestID:    req.RequestID,
			})
			continue
		}

		start := c.clock.Now()
		result, err := c.invoke(ctx, entry.provider, req)
		elapsed := c.clock.Now().Sub(start)

		if err != nil {
			if IsCancellation(err) || ctx.Err() != nil {
				return nil, err
			}
			entry.circuit.recordFailure()
			c.logger.Warn(ctx, "provider attempt failed",
				ttslog.F("provider", entry.config.Name),
				ttslog.F("request_id", req.RequestID),
				ttslog.F("error", err.Error()))
			attempts = append(attempts, AttemptRecord{
				ProviderName: entry.config.Name,
				ErrorMessage: err.Error(),
				Duration:     elapsed,
				RequestID:    req.RequestID,
			})
			continue
		}

		if result != nil && result.Success {
			entry.circuit.recordSuccess()
			result.ProviderUsed = entry.config.Name
			result.Attempts = attempts
			return result, nil
		}

		// ProviderFailure: a Result with Success=false and no error.
		entry.circuit.recordFailure()
		msg := "no audio"
		if result != nil && result.ErrorMessage != "" {
			msg = result.ErrorMessage
		}
		c.logger.Warn(ctx, "provider attempt failed",
			ttslog.F("provider", entry.config.Name),
			ttslog.F("request_id", req.RequestID),
			ttslog.F("error", msg))
		attempts = append(attempts, AttemptRecord{
			ProviderName: entry.config.Name,
			ErrorMessage: msg,
			Duration:     elapsed,
			RequestID:    req.RequestID,
		})
	}

	return &SynthesisResult{
		Success:        false,
		ErrorMessage:   "All " + strconv.Itoa(len(candidates)) + " providers failed",
		Attempts:       attempts,
		GenerationTime: sumDurations(attempts),
	}, nil
}

// invoke calls provider.Synthesize and converts a panic into an ordinary
// ProviderFault error, per spec §4.3 ("raises any other fault" / §9: the
// chain does not depend on whether a backend is dynamic-dispatch or a
// tagged variant, only on the Provider contract). Unlike a bare circuit
// breaker that re-panics to its caller, the chain swallows the panic here
// because a panicking backend must not abort an in-flight request that
// still has other candidates left to try.
func (c *ProviderChain) invoke(ctx context.Context, p Provider, req *SynthesisRequest) (result *SynthesisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewError(KindProviderFault, "provider panicked", nil)
			if rerr, ok := r.(error); ok {
				err = NewError(KindProviderFault, "provider panicked", rerr)
			}
		}
	}()
	return p.Synthesize(ctx, req)
}

func sumDurations(attempts []AttemptRecord) time.Duration {
	var total time.Duration
	for _, a := range attempts {
		total += a.Duration
	}
	return total
}

// selectCandidates implements spec §4.3 step 1: fallback-chain override (or
// default priority order), then preferred-provider hoisting.
func (c *ProviderChain) selectCandidates(ctx context.Context, req *SynthesisRequest) []*registryEntry {
	var candidates []*registryEntry

	if len(req.FallbackChain) > 0 {
		candidates = c.filterFallbackChain(ctx, req.FallbackChain, req.RequestID)
	}
	if candidates == nil {
		candidates = c.registry.enabledInPriorityOrder()
	}

	if req.PreferredProvider == "" || len(candidates) == 0 {
		return candidates
	}

	target := strings.ToLower(req.PreferredProvider)
	idx := -1
	for i, e := range candidates {
		if strings.ToLower(e.config.Name) == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.logger.Warn(ctx, "preferred provider not a valid candidate",
			ttslog.F("preferred_provider", req.PreferredProvider),
			ttslog.F("request_id", req.RequestID))
		return candidates
	}
	if idx == 0 {
		return candidates
	}

	hoisted := make([]*registryEntry, 0, len(candidates))
	hoisted = append(hoisted, candidates[idx])
	hoisted = append(hoisted, candidates[:idx]...)
	hoisted = append(hoisted, candidates[idx+1:]...)
	return hoisted
}

// filterFallbackChain resolves a per-request explicit provider name list
// against the registry, keeping only known+enabled entries in the order
// given. Unknown or disabled names are dropped with a warning diagnostic
// and never counted as an attempt. Returns nil (not an empty, non-nil
// slice) when the filtered result is empty, so the caller falls back to
// the default priority order per spec §4.3 step 1.
func (c *ProviderChain) filterFallbackChain(ctx context.Context, names []string, requestID string) []*registryEntry {
	out := make([]*registryEntry, 0, len(names))
	for _, name := range names {
		entry := c.registry.lookup(name)
		if entry == nil {
			c.logger.Warn(ctx, "fallback chain references unknown provider",
				ttslog.F("provider", name), ttslog.F("request_id", requestID))
			continue
		}
		if !entry.config.Enabled {
			c.logger.Warn(ctx, "fallback chain references disabled provider",
				ttslog.F("provider", name), ttslog.F("request_id", requestID))
			continue
		}
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ProviderStatusSnapshot is one entry of ProvidersStatus's return value.
type ProviderStatusSnapshot struct {
	Name                string
	Priority            int
	Enabled             bool
	CircuitStatus       Status
	OpenUntil           *time.Time
	ConsecutiveFailures int
}

// ProvidersStatus returns a pure, concurrency-safe snapshot of every
// registered provider's configuration and breaker state, for diagnostic
// surfaces. It never mutates anything and never invokes a provider.
func (c *ProviderChain) ProvidersStatus() []ProviderStatusSnapshot {
	now := c.clock.Now()
	entries := c.registry.All()
	out := make([]ProviderStatusSnapshot, 0, len(entries))
	for _, e := range entries {
		snap := e.circuit.snapshot(now)
		out = append(out, ProviderStatusSnapshot{
			Name:                e.config.Name,
			Priority:            e.config.Priority,
			Enabled:             e.config.Enabled,
			CircuitStatus:       snap.Status,
			OpenUntil:           snap.OpenUntil,
			ConsecutiveFailures: snap.ConsecutiveFailures,
		})
	}
	return out
}
