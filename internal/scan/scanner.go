// Package scan exposes the core entry point: one call that takes a token
// mint and returns a complete EngineResult, however unhealthy the upstream
// providers are.
package scan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/fetch"
	"github.com/cryptoguard/tokenscan/internal/providers"
	"github.com/cryptoguard/tokenscan/internal/resilience"
	"github.com/cryptoguard/tokenscan/internal/scoring"
	"github.com/cryptoguard/tokenscan/internal/signals"
)

// Scanner runs token scans over a shared resilience context. Callers are
// expected to validate the mint format before calling Scan; the scanner
// treats the identifier as opaque.
type Scanner struct {
	res       *resilience.Context
	collector *signals.Collector
	engine    *scoring.Engine
}

// New wires the production scanner: five adapters over one resilience
// context, a collector and the scoring engine.
func New(cfg config.Config, res *resilience.Context) *Scanner {
	httpOpts := fetch.Options{
		MaxRetries:   cfg.Resilience.FetchRetries,
		Backoff:      time.Duration(cfg.Resilience.FetchBackoffMS) * time.Millisecond,
		MaxBodyBytes: cfg.Resilience.MaxBodyBytes,
	}

	collector := signals.NewCollector(
		cfg.Collector,
		providers.NewChainMetaClient(cfg.Providers.ChainMeta, res, httpOpts),
		providers.NewMarketClient(cfg.Providers.Market, res, httpOpts),
		providers.NewPairsClient(cfg.Providers.Pairs, res, httpOpts),
		providers.NewPoolsClient(cfg.Providers.Pools, res, httpOpts),
		providers.NewQuoteClient(cfg.Providers.Quote, res, httpOpts),
	)

	return &Scanner{
		res:       res,
		collector: collector,
		engine:    scoring.NewEngine(cfg.Scoring),
	}
}

// NewWithCollector wires a scanner over an existing collector, which lets
// tests drive the full pipeline with fake sources.
func NewWithCollector(cfg config.ScoringConfig, res *resilience.Context, collector *signals.Collector) *Scanner {
	return &Scanner{
		res:       res,
		collector: collector,
		engine:    scoring.NewEngine(cfg),
	}
}

// Scan collects signals for mint and scores them. It always returns a
// complete result: provider trouble surfaces as reduced confidence and a
// degraded-sources reason, never as an error.
func (s *Scanner) Scan(ctx context.Context, mint string) *scoring.EngineResult {
	scanID := uuid.NewString()
	start := time.Now()

	logger := log.With().Str("scan_id", scanID).Str("mint", mint).Logger()
	logger.Info().Msg("scan started")

	sig := s.collector.Collect(ctx, mint)
	result := s.engine.Run(sig)
	result.ScanID = scanID

	s.res.Metrics.RecordScan(result.Score)

	logger.Info().
		Int("score", result.Score).
		Str("badge", string(result.Badge)).
		Float64("confidence", result.Confidence).
		Int("sources_ok", sig.SourcesOk).
		Int("sources_total", sig.SourcesTotal).
		Dur("duration", time.Since(start)).
		Msg("scan completed")

	return result
}
