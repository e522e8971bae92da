package resilience

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter applies token-bucket rate limiting per provider so a burst of
// scans cannot blow through an upstream's request budget. A provider with no
// configured limit is unthrottled.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewLimiter creates an empty limiter; providers are registered explicitly
// with Configure.
func NewLimiter() *Limiter {
	return &Limiter{limiters: make(map[string]*rate.Limiter)}
}

// Configure sets the request rate and burst capacity for a provider.
// Non-positive rps disables limiting for that provider.
func (l *Limiter) Configure(provider string, rps float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rps <= 0 {
		delete(l.limiters, provider)
		return
	}
	if burst <= 0 {
		burst = 1
	}
	l.limiters[provider] = rate.NewLimiter(rate.Limit(rps), burst)
}

// Allow reports whether a request for provider fits inside its budget right
// now. It never blocks; a denied request is treated as a degraded skip by
// the adapters rather than queued.
func (l *Limiter) Allow(provider string) bool {
	l.mu.RLock()
	limiter, ok := l.limiters[provider]
	l.mu.RUnlock()

	if !ok {
		return true
	}
	return limiter.Allow()
}
