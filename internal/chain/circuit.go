package chain

import (
	"sync"
	"time"
)

// Status is the three-state circuit breaker status derived from
// CircuitState at a given instant. Unlike the teacher's CircuitBreaker,
// Status is never stored directly — it is always a pure function of
// (consecutiveFailures, openUntil, now); see observedStatus.
type Status int

const (
	// StatusClosed: normal operation, the provider is invoked.
	StatusClosed Status = iota
	// StatusHalfOpen: the provider is invoked as a trial to test recovery.
	// Concurrent callers are not gated, so more than one trial may run at
	// once; the first outcome recorded decides the next transition.
	StatusHalfOpen
	// StatusOpen: the provider is skipped without being invoked.
	StatusOpen
)

func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusHalfOpen:
		return "half-open"
	case StatusOpen:
		return "open"
	default:
		return "unknown"
	}
}

// CircuitState is the per-provider runtime breaker state from spec §3/§4.2.
// All reads and writes go through the exclusive lock embedded here; the
// provider's own synthesis call must never happen while this lock is held.
//
// Ownership: one CircuitState is created per configured provider at chain
// construction and lives for the process lifetime. It is mutated only via
// recordSuccess and recordFailure.
type CircuitState struct {
	mu sync.Mutex

	clock  Clock
	config BreakerConfig

	consecutiveFailures int
	failureMultiplier   int
	openUntil           *time.Time

	// onTransition, if set, is invoked (with the lock held, so it must not
	// call back into this CircuitState) whenever observedStatus,
	// recordSuccess or recordFailure arrives at a status that differs from
	// the status last reported to it. Used by internal/ttsmetrics to drive a gauge without
	// forcing every caller to carry a Prometheus dependency. nil is the
	// common case and costs nothing beyond a nil check.
	onTransition func(providerName string, from, to Status)
	providerName string
	lastReported Status
}

// NewCircuitState creates a CircuitState in the Closed state for one
// provider, using clock for all time comparisons.
func NewCircuitState(providerName string, cfg BreakerConfig, clock Clock) *CircuitState {
	return &CircuitState{
		clock:             clock,
		config:            cfg,
		failureMultiplier: 1,
		providerName:      providerName,
		lastReported:      StatusClosed,
	}
}

// SetOnTransition installs a hook called whenever the observed status
// changes. It must be set before concurrent use begins; it is not itself
// synchronized against observedStatus/recordFailure/recordSuccess calls
// racing at construction time.
func (c *CircuitState) SetOnTransition(fn func(providerName string, from, to Status)) {
	c.onTransition = fn
}

// observedStatus derives {Closed, HalfOpen, Open} from the current state
// and now, per spec §3/§4.2. It is a pure read but still takes the lock
// because openUntil may be concurrently mutated.
func (c *CircuitState) observedStatus(now time.Time) Status {
	c.mu.Lock()
	status := c.statusLocked(now)
	c.reportLocked(status)
	c.mu.Unlock()
	return status
}

func (c *CircuitState) statusLocked(now time.Time) Status {
	if c.openUntil == nil {
		return StatusClosed
	}
	if !now.Before(*c.openUntil) {
		return StatusHalfOpen
	}
	return StatusOpen
}

func (c *CircuitState) reportLocked(status Status) {
	if c.onTransition == nil || status == c.lastReported {
		return
	}
	from := c.lastReported
	c.lastReported = status
	c.onTransition(c.providerName, from, status)
}

// recordSuccess closes the breaker unconditionally: consecutiveFailures and
// the backoff multiplier reset, openUntil is cleared. This is always a
// single compound transition, per the ordering guarantee in spec §5.
func (c *CircuitState) recordSuccess() {
	c.mu.Lock()
	c.consecutiveFailures = 0
	c.failureMultiplier = 1
	c.openUntil = nil
	c.reportLocked(StatusClosed)
	c.mu.Unlock()
}

// recordFailure increments consecutiveFailures and, once the threshold is
// reached, opens the breaker using the (possibly exponentially backed off)
// timeout. Per spec §4.2, a failure observed while HalfOpen re-opens the
// breaker using the next timeout in the sequence, since the threshold was
// already met on the call that first opened it.
func (c *CircuitState) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures < c.config.FailureThreshold {
		return
	}

	timeout := c.config.ResetTimeout
	if c.config.UseExponentialBackoff {
		timeout = c.config.ResetTimeout * time.Duration(c.failureMultiplier)
		if c.config.MaxResetTimeout > 0 && timeout > c.config.MaxResetTimeout {
			timeout = c.config.MaxResetTimeout
		}
		c.failureMultiplier *= 2
	}

	until := c.clock.Now().Add(timeout)
	c.openUntil = &until
	c.reportLocked(StatusOpen)
}

// Snapshot is a point-in-time view of a CircuitState, safe to share outside
// the lock; it backs ProviderChain.ProvidersStatus.
type Snapshot struct {
	Status              Status
	OpenUntil           *time.Time
	ConsecutiveFailures int
}

// snapshot takes a consistent read of every field under the lock.
func (c *CircuitState) snapshot(now time.Time) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	var openUntil *time.Time
	if c.openUntil != nil {
		t := *c.openUntil
		openUntil = &t
	}
	return Snapshot{
		Status:              c.statusLocked(now),
		OpenUntil:           openUntil,
		ConsecutiveFailures: c.consecutiveFailures,
	}
}
