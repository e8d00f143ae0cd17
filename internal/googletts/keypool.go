// Package googletts implements the multi-key Google Cloud Text-to-Speech
// client from spec §4.4: a MultiKeyClient that rotates among several API
// keys for the same endpoint, applying independent per-key cooldowns on
// rate-limit, quota, and temporary errors, permanently retiring a key that
// is rejected as unauthorized, and presents itself to the
// orchestrator as a single chain.Provider.
package googletts

import (
	"sync"
	"time"

	"github.com/ttsrelay/ttschain/internal/chain"
)

// KeyState is the runtime state machine for a single API key (spec §3,
// §4.4.1).
type KeyState int

const (
	KeyAvailable KeyState = iota
	KeyRateLimited
	KeyQuotaExceeded
	KeyInvalid
	KeyTemporaryError
)

func (s KeyState) String() string {
	switch s {
	case KeyAvailable:
		return "available"
	case KeyRateLimited:
		return "rate_limited"
	case KeyQuotaExceeded:
		return "quota_exceeded"
	case KeyInvalid:
		return "invalid"
	case KeyTemporaryError:
		return "temporary_error"
	default:
		return "unknown"
	}
}

// apiKey is one entry in the pool: immutable identity plus mutable state,
// guarded by KeyPool's single mutex (spec §5: "The KeyPool owns a single
// mutex covering all keys").
type apiKey struct {
	index       int
	displayName string
	secretValue string

	state         KeyState
	cooldownUntil *time.Time
}

// KeyPoolConfig configures the per-classification cooldown durations (spec
// §6.1 multiKey schema: rateLimitCooldown, quotaExceededCooldown).
type KeyPoolConfig struct {
	RateLimitCooldown      time.Duration // default 1h
	QuotaExceededCooldown  time.Duration // default 24h
	TemporaryErrorCooldown time.Duration // default 5s, not configurable in spec §4.4.1 but exposed for tests
}

// DefaultKeyPoolConfig returns the spec's documented cooldown defaults.
func DefaultKeyPoolConfig() KeyPoolConfig {
	return KeyPoolConfig{
		RateLimitCooldown:      time.Hour,
		QuotaExceededCooldown:  24 * time.Hour,
		TemporaryErrorCooldown: 5 * time.Second,
	}
}

// KeyPool is the per-API-key state machine from spec §4.4.1. Selection and
// state transitions take a single lock; HTTP I/O always happens outside it.
type KeyPool struct {
	mu     sync.Mutex
	clock  chain.Clock
	config KeyPoolConfig
	keys   []*apiKey

	// onTransition mirrors CircuitState's diagnostics hook; nil by
	// default.
	onTransition func(displayName string, from, to KeyState)
}

// KeySecret pairs a displayable name with the resolved secret value looked
// up from configuration (spec §6.1 apiKeySecrets[].secretKey/displayName).
type KeySecret struct {
	DisplayName string
	SecretValue string
}

// NewKeyPool builds a KeyPool with one Available key per secret, in the
// given order (spec: "Keys are stored in a fixed-order list").
func NewKeyPool(clock chain.Clock, config KeyPoolConfig, secrets []KeySecret) *KeyPool {
	keys := make([]*apiKey, len(secrets))
	for i, s := range secrets {
		keys[i] = &apiKey{
			index:       i,
			displayName: s.DisplayName,
			secretValue: s.SecretValue,
			state:       KeyAvailable,
		}
	}
	return &KeyPool{clock: clock, config: config, keys: keys}
}

// SetOnTransition installs a diagnostics hook. It is called with the pool's
// lock held, so it must not call back into the KeyPool.
func (p *KeyPool) SetOnTransition(fn func(displayName string, from, to KeyState)) {
	p.onTransition = fn
}

// Key is the handle returned by NextAvailable: enough to issue the HTTP
// request and to report the outcome back via the Mark* methods.
type Key struct {
	index       int
	DisplayName string
	SecretValue string
}

// NextAvailable implements the selection algorithm from spec §4.4.1: walk
// the list in index order, skipping Invalid keys; return the first
// Available key, else promote and return the first key whose cooldown has
// expired, else return (Key{}, false).
func (p *KeyPool) NextAvailable(now time.Time) (Key, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, k := range p.keys {
		if k.state == KeyInvalid {
			continue
		}
		if k.state == KeyAvailable {
			return p.handleOf(k), true
		}
	}
	for _, k := range p.keys {
		if k.state == KeyInvalid || k.state == KeyAvailable {
			continue
		}
		if k.cooldownUntil != nil && !now.Before(*k.cooldownUntil) {
			p.transitionLocked(k, KeyAvailable)
			k.cooldownUntil = nil
			return p.handleOf(k), true
		}
	}
	return Key{}, false
}

func (p *KeyPool) handleOf(k *apiKey) Key {
	return Key{index: k.index, DisplayName: k.displayName, SecretValue: k.secretValue}
}

// MarkRateLimited transitions key to RateLimited with a RateLimitCooldown
// cooldown (spec §4.4.2: HTTP 429).
func (p *KeyPool) MarkRateLimited(key Key, now time.Time) {
	p.markWithCooldown(key, KeyRateLimited, now.Add(p.config.RateLimitCooldown))
}

// MarkQuotaExceeded transitions key to QuotaExceeded with a
// QuotaExceededCooldown cooldown (spec §4.4.2: HTTP 403).
func (p *KeyPool) MarkQuotaExceeded(key Key, now time.Time) {
	p.markWithCooldown(key, KeyQuotaExceeded, now.Add(p.config.QuotaExceededCooldown))
}

// MarkTemporaryError transitions key to TemporaryError with a short
// cooldown, allowing near-immediate reuse on a later request while still
// letting the current loop move on to the next key (spec §4.4.1, §4.4.2:
// HTTP 5xx and other non-2xx).
func (p *KeyPool) MarkTemporaryError(key Key, now time.Time) {
	p.markWithCooldown(key, KeyTemporaryError, now.Add(p.config.TemporaryErrorCooldown))
}

// MarkInvalid transitions key to Invalid, terminally — it is never reused
// (spec §4.4.2: HTTP 401).
func (p *KeyPool) MarkInvalid(key Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := p.keys[key.index]
	p.transitionLocked(k, KeyInvalid)
	k.cooldownUntil = nil
}

func (p *KeyPool) markWithCooldown(key Key, state KeyState, until time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := p.keys[key.index]
	p.transitionLocked(k, state)
	k.cooldownUntil = &until
}

func (p *KeyPool) transitionLocked(k *apiKey, to KeyState) {
	from := k.state
	k.state = to
	if p.onTransition != nil && from != to {
		p.onTransition(k.displayName, from, to)
	}
}

// KeySnapshot is a point-in-time view of one key, for diagnostics.
type KeySnapshot struct {
	DisplayName   string
	State         KeyState
	CooldownUntil *time.Time
}

// Snapshot returns every key's current state, for diagnostics and tests.
func (p *KeyPool) Snapshot(now time.Time) []KeySnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]KeySnapshot, len(p.keys))
	for i, k := range p.keys {
		var until *time.Time
		if k.cooldownUntil != nil {
			t := *k.cooldownUntil
			until = &t
		}
		out[i] = KeySnapshot{DisplayName: k.displayName, State: k.state, CooldownUntil: until}
	}
	return out
}

// Len reports how many keys are configured.
func (p *KeyPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Availability implements spec §4.4.3: Unavailable if no keys configured;
// Available if at least one key is Available or any cooldown has expired;
// else Degraded.
func (p *KeyPool) Availability(now time.Time) chain.ProviderAvailability {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) == 0 {
		return chain.ProviderUnavailable
	}
	for _, k := range p.keys {
		if k.state == KeyAvailable {
			return chain.ProviderAvailable
		}
		if k.state != KeyInvalid && k.cooldownUntil != nil && !now.Before(*k.cooldownUntil) {
			return chain.ProviderAvailable
		}
	}
	return chain.ProviderDegraded
}
