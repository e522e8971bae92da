// Package providers contains one adapter per upstream data source. Every
// adapter composes the shared cache, circuit breaker, rate limiter and
// guarded fetch behind the same Result shape, and normalizes whatever the
// upstream sent into a small typed DTO at its own boundary.
package providers

// Quality tags annotate how a Result was produced.
type Quality string

const (
	QualityCacheHit Quality = "CACHE_HIT"
	QualityDegraded Quality = "DEGRADED"
	QualityTimeout  Quality = "TIMEOUT"
)

// Result is the uniform outcome of every adapter call. Failures are data,
// not errors: adapters never return a Go error for upstream trouble.
type Result[T any] struct {
	OK        bool      `json:"ok"`
	LatencyMs int64     `json:"latency_ms"`
	Data      T         `json:"data,omitempty"`
	Err       string    `json:"error,omitempty"`
	Quality   []Quality `json:"quality"`
}

// Degraded builds a failed result carrying the DEGRADED tag.
func Degraded[T any](err string) Result[T] {
	return Result[T]{Err: err, Quality: []Quality{QualityDegraded}}
}
