// Package resilience bundles the shared protection around provider calls:
// per-endpoint circuit breakers, per-provider rate limiting and the TTL
// cache, grouped into one injectable context so nothing lives in package
// globals.
package resilience

import (
	"sync"
	"time"
)

// State is the circuit breaker state for one endpoint key.
type State int

const (
	StateClosed   State = iota // requests flow normally
	StateOpen                  // requests rejected until the cooldown elapses
	StateHalfOpen              // one probe in flight, everything else rejected
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures every breaker in a registry.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures that open the circuit
	Cooldown         time.Duration // open duration before a half-open probe
}

// DefaultBreakerConfig matches the production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         60 * time.Second,
	}
}

// breaker is the state machine for a single endpoint key.
type breaker struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	state    State
	failures int
	openedAt time.Time
}

// allow reports whether a call may proceed, transitioning open breakers to
// half-open once the cooldown has elapsed. In half-open state exactly one
// caller gets through; the rest are rejected until the probe settles.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.openedAt) >= b.cfg.Cooldown {
			b.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		return false
	default:
		return false
	}
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = StateClosed
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		// Failed probe: back to open with a fresh cooldown clock.
		b.state = StateOpen
		b.openedAt = time.Now()
		return
	}

	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.state = StateOpen
		b.openedAt = time.Now()
	}
}

func (b *breaker) snapshot() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStatus{
		State:    b.state.String(),
		Failures: b.failures,
		OpenedAt: b.openedAt,
	}
}

// BreakerStatus is a point-in-time view of one breaker, used by health
// reporting.
type BreakerStatus struct {
	State    string    `json:"state"`
	Failures int       `json:"failures"`
	OpenedAt time.Time `json:"opened_at,omitempty"`
}

// BreakerRegistry holds one independent breaker per logical endpoint key
// (for example "market:token_overview"). Keys never share failure state, so
// one dead upstream cannot shadow a healthy one.
type BreakerRegistry struct {
	mu       sync.RWMutex
	cfg      BreakerConfig
	breakers map[string]*breaker
}

// NewBreakerRegistry creates an empty registry; breakers are created lazily
// on first use of a key.
func NewBreakerRegistry(cfg BreakerConfig) *BreakerRegistry {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultBreakerConfig().Cooldown
	}
	return &BreakerRegistry{
		cfg:      cfg,
		breakers: make(map[string]*breaker),
	}
}

func (r *BreakerRegistry) get(key string) *breaker {
	r.mu.RLock()
	b, ok := r.breakers[key]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock.
	if b, ok := r.breakers[key]; ok {
		return b
	}
	b = &breaker{cfg: r.cfg, state: StateClosed}
	r.breakers[key] = b
	return b
}

// Allow reports whether a call for key may proceed. Call sites must check
// this before any request and report the outcome via RecordSuccess or
// RecordFailure.
func (r *BreakerRegistry) Allow(key string) bool {
	return r.get(key).allow()
}

// RecordSuccess closes the breaker for key and resets its failure count.
func (r *BreakerRegistry) RecordSuccess(key string) {
	r.get(key).recordSuccess()
}

// RecordFailure counts a failure for key, opening the breaker at the
// configured threshold. A half-open probe failure reopens immediately.
func (r *BreakerRegistry) RecordFailure(key string) {
	r.get(key).recordFailure()
}

// State returns the current state for key without creating it.
func (r *BreakerRegistry) State(key string) State {
	r.mu.RLock()
	b, ok := r.breakers[key]
	r.mu.RUnlock()
	if !ok {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns the status of every breaker seen so far.
func (r *BreakerRegistry) Snapshot() map[string]BreakerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]BreakerStatus, len(r.breakers))
	for key, b := range r.breakers {
		out[key] = b.snapshot()
	}
	return out
}
