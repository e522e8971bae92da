package resilience

import (
	"time"

	"github.com/cryptoguard/tokenscan/internal/cache"
	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/telemetry"
)

// Context is the shared resilience state every adapter call goes through:
// one cache, one breaker registry, one rate limiter. It is constructed
// explicitly and injected, so tests get a fresh, isolated context instead of
// sharing hidden package state.
type Context struct {
	Cache    *cache.TTLCache
	Breakers *BreakerRegistry
	Limiter  *Limiter
	Metrics  *telemetry.Metrics
}

// NewContext builds a resilience context from configuration. Metrics may be
// nil when instrumentation is not wanted.
func NewContext(cfg config.ResilienceConfig, metrics *telemetry.Metrics) *Context {
	return &Context{
		Cache: cache.NewTTLCache(cfg.CacheMaxEntries),
		Breakers: NewBreakerRegistry(BreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
			Cooldown:         time.Duration(cfg.CooldownMS) * time.Millisecond,
		}),
		Limiter: NewLimiter(),
		Metrics: metrics,
	}
}

// NewTestContext builds a context with defaults suitable for unit tests.
func NewTestContext() *Context {
	return &Context{
		Cache:    cache.NewTTLCache(1000),
		Breakers: NewBreakerRegistry(DefaultBreakerConfig()),
		Limiter:  NewLimiter(),
	}
}
