package providers

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cryptoguard/tokenscan/internal/cache"
	"github.com/cryptoguard/tokenscan/internal/fetch"
	"github.com/cryptoguard/tokenscan/internal/resilience"
)

// call describes one guarded provider request. Every adapter method fills
// one of these and hands it to invoke, which runs the shared template:
// cache lookup, rate limit, breaker gate, guarded fetch, DTO normalization,
// write-through.
type call[T any] struct {
	res      *resilience.Context
	http     *fetch.Client
	provider string
	method   string
	params   map[string]string
	url      string
	headers  map[string]string
	ttl      time.Duration
	validate fetch.ValidateFunc
	// decode turns the raw decoded payload into the adapter's DTO. A decode
	// failure is a terminal upstream error and counts against the breaker.
	decode func(data any) (T, error)
}

func invoke[T any](ctx context.Context, c call[T]) Result[T] {
	key := cache.Key(c.provider, c.method, c.params)
	endpoint := c.provider + ":" + c.method

	if cached, ok := cache.Lookup[T](c.res.Cache, key); ok {
		c.res.Metrics.RecordCacheHit(true)
		c.res.Metrics.RecordProviderCall(c.provider, c.method, "cache_hit", 0)
		return Result[T]{OK: true, Data: cached, Quality: []Quality{QualityCacheHit}}
	}
	c.res.Metrics.RecordCacheHit(false)

	// A denied rate-limit token is a local skip, not an upstream fault, so
	// it does not consume a breaker failure slot.
	if !c.res.Limiter.Allow(c.provider) {
		c.res.Metrics.RecordProviderCall(c.provider, c.method, "rate_limited", 0)
		return Degraded[T]("rate limit exceeded for " + c.provider)
	}

	if !c.res.Breakers.Allow(endpoint) {
		c.res.Metrics.RecordBreakerRejection(endpoint)
		c.res.Metrics.RecordProviderCall(c.provider, c.method, "breaker_open", 0)
		return Degraded[T]("circuit open for " + endpoint)
	}

	resp := c.http.Get(ctx, c.url, c.headers, c.validate)
	if !resp.OK {
		// Caller cancellation aborted the call before the upstream could
		// answer. That says nothing about upstream health, so it is a local
		// skip like a denied rate-limit token, not a breaker failure.
		if errors.Is(ctx.Err(), context.Canceled) {
			c.res.Metrics.RecordProviderCall(c.provider, c.method, "canceled", 0)
			return Degraded[T]("caller canceled request to " + endpoint)
		}
		c.res.Breakers.RecordFailure(endpoint)
		quality := QualityDegraded
		outcome := "error"
		if resp.TimedOut {
			quality = QualityTimeout
			outcome = "timeout"
		}
		c.res.Metrics.RecordProviderCall(c.provider, c.method, outcome, float64(resp.LatencyMs)/1000)
		log.Warn().
			Str("provider", c.provider).
			Str("method", c.method).
			Int("status", resp.Status).
			Int64("latency_ms", resp.LatencyMs).
			Str("error", resp.Err).
			Msg("provider request failed")
		return Result[T]{
			LatencyMs: resp.LatencyMs,
			Err:       resp.Err,
			Quality:   []Quality{quality},
		}
	}

	data, err := c.decode(resp.Data)
	if err != nil {
		// Syntactically valid but unusable payload: terminal, breaker counts it.
		c.res.Breakers.RecordFailure(endpoint)
		c.res.Metrics.RecordProviderCall(c.provider, c.method, "decode_error", float64(resp.LatencyMs)/1000)
		log.Warn().
			Str("provider", c.provider).
			Str("method", c.method).
			Err(err).
			Msg("provider payload rejected")
		return Result[T]{
			LatencyMs: resp.LatencyMs,
			Err:       err.Error(),
			Quality:   []Quality{QualityDegraded},
		}
	}

	c.res.Breakers.RecordSuccess(endpoint)
	c.res.Cache.Set(key, data, c.ttl)
	c.res.Metrics.RecordProviderCall(c.provider, c.method, "ok", float64(resp.LatencyMs)/1000)

	log.Debug().
		Str("provider", c.provider).
		Str("method", c.method).
		Int64("latency_ms", resp.LatencyMs).
		Msg("provider request succeeded")

	return Result[T]{
		OK:        true,
		LatencyMs: resp.LatencyMs,
		Data:      data,
		Quality:   []Quality{},
	}
}
