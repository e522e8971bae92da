package signals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/providers"
)

// The collector consumes each adapter through a one-method interface so
// tests can substitute fakes without any network machinery.
type (
	MetadataSource interface {
		TokenMetadata(ctx context.Context, mint string) providers.Result[providers.AssetMeta]
	}
	MarketSource interface {
		TokenOverview(ctx context.Context, mint string) providers.Result[providers.MarketOverview]
	}
	PairSource interface {
		TokenPairs(ctx context.Context, mint string) providers.Result[providers.PairListing]
	}
	PoolSource interface {
		PoolsForMint(ctx context.Context, mint string) providers.Result[providers.PoolList]
	}
	QuoteSource interface {
		SellQuote(ctx context.Context, mint string) providers.Result[providers.SwapQuote]
	}
)

// Collector fans out to every provider adapter for one token and folds the
// settled results into a ScoreSignals.
type Collector struct {
	cfg   config.CollectorConfig
	meta  MetadataSource
	mkt   MarketSource
	pairs PairSource
	pools PoolSource
	quote QuoteSource
}

// NewCollector wires a collector over the five adapter sources.
func NewCollector(cfg config.CollectorConfig, meta MetadataSource, mkt MarketSource, pairs PairSource, pools PoolSource, quote QuoteSource) *Collector {
	return &Collector{cfg: cfg, meta: meta, mkt: mkt, pairs: pairs, pools: pools, quote: quote}
}

// Collect queries every source concurrently and waits for the full set.
// A slow or failed source degrades its contribution; it can never fail or
// block the others beyond its own timeout, so wall-clock latency is bounded
// by the slowest single adapter, not the sum.
func (c *Collector) Collect(ctx context.Context, mint string) *ScoreSignals {
	var (
		wg        sync.WaitGroup
		metaRes   providers.Result[providers.AssetMeta]
		marketRes providers.Result[providers.MarketOverview]
		pairsRes  providers.Result[providers.PairListing]
		poolsRes  providers.Result[providers.PoolList]
		quoteRes  providers.Result[providers.SwapQuote]
	)

	wg.Add(5)
	go func() { defer wg.Done(); metaRes = c.meta.TokenMetadata(ctx, mint) }()
	go func() { defer wg.Done(); marketRes = c.mkt.TokenOverview(ctx, mint) }()
	go func() { defer wg.Done(); pairsRes = c.pairs.TokenPairs(ctx, mint) }()
	go func() { defer wg.Done(); poolsRes = c.pools.PoolsForMint(ctx, mint) }()
	go func() { defer wg.Done(); quoteRes = c.quote.SellQuote(ctx, mint) }()
	wg.Wait()

	s := &ScoreSignals{
		Mint:         mint,
		SourcesTotal: 5,
		Evidence:     make(map[string]any),
	}
	for _, ok := range []bool{metaRes.OK, marketRes.OK, pairsRes.OK, poolsRes.OK, quoteRes.OK} {
		if ok {
			s.SourcesOk++
		}
	}

	c.foldMetadata(s, metaRes)
	c.foldMarket(s, marketRes, pairsRes)
	c.foldPools(s, poolsRes, pairsRes)
	c.foldQuote(s, quoteRes)
	c.foldActors(s, marketRes)

	log.Debug().
		Str("mint", mint).
		Int("sources_ok", s.SourcesOk).
		Int("sources_total", s.SourcesTotal).
		Bool("data_conflict", s.DataConflict).
		Msg("signals collected")

	return s
}

func (c *Collector) foldMetadata(s *ScoreSignals, res providers.Result[providers.AssetMeta]) {
	if !res.OK {
		s.Evidence["chainmeta"] = map[string]any{"ok": false, "error": res.Err}
		return
	}
	meta := res.Data
	s.MintActive = meta.MintActive
	s.Top10ConcentrationPct = finite(meta.Top10HolderPct)
	s.Evidence["chainmeta"] = map[string]any{
		"ok":               true,
		"symbol":           meta.Symbol,
		"mint_active":      meta.MintActive,
		"top10_holder_pct": s.Top10ConcentrationPct,
	}
}

// foldMarket reconciles the aggregator with the best pair listing. Price
// prefers the aggregator with the pair price as fallback; liquidity and
// volume take the larger of the two, since each provider under-reports
// pools it does not track.
func (c *Collector) foldMarket(s *ScoreSignals, mkt providers.Result[providers.MarketOverview], pairs providers.Result[providers.PairListing]) {
	var primaryPrice, primaryLiq, primaryVol *float64
	if mkt.OK {
		primaryPrice = finite(mkt.Data.PriceUsd)
		primaryLiq = finite(mkt.Data.LiquidityUsd)
		primaryVol = finite(mkt.Data.Volume24hUsd)
		s.Market.SourcesUsed = append(s.Market.SourcesUsed, "market")
		s.Evidence["market"] = map[string]any{
			"ok": true, "price_usd": primaryPrice, "liquidity_usd": primaryLiq, "volume_24h_usd": primaryVol,
		}
	} else {
		s.Evidence["market"] = map[string]any{"ok": false, "error": mkt.Err}
	}

	var secondaryPrice, secondaryLiq, secondaryVol *float64
	if pairs.OK {
		best := bestPair(pairs.Data.Pairs)
		if best != nil {
			secondaryPrice = finite(best.PriceUsd)
			secondaryLiq = finite(best.LiquidityUsd)
			secondaryVol = finite(best.Volume24hUsd)
			s.Market.SourcesUsed = append(s.Market.SourcesUsed, "pairs")
		}
		s.Evidence["pairs"] = map[string]any{
			"ok": true, "pair_count": len(pairs.Data.Pairs),
			"price_usd": secondaryPrice, "liquidity_usd": secondaryLiq, "volume_24h_usd": secondaryVol,
		}
	} else {
		s.Evidence["pairs"] = map[string]any{"ok": false, "error": pairs.Err}
	}

	s.Market.PriceUsd = firstNonNil(primaryPrice, secondaryPrice)
	s.Market.LiquidityUsd = maxNonNil(primaryLiq, secondaryLiq)
	s.Market.Volume24hUsd = maxNonNil(primaryVol, secondaryVol)

	if relativeDivergence(primaryPrice, secondaryPrice) > c.cfg.PriceConflictPct {
		s.DataConflict = true
		s.Actors.Notes = append(s.Actors.Notes, fmt.Sprintf(
			"price divergence: market=%.6g pairs=%.6g", *primaryPrice, *secondaryPrice))
	}
	if relativeDivergence(primaryVol, secondaryVol) > c.cfg.VolumeConflictPct {
		s.DataConflict = true
		s.Actors.Notes = append(s.Actors.Notes, fmt.Sprintf(
			"volume divergence: market=%.6g pairs=%.6g", *primaryVol, *secondaryVol))
	}
}

// foldPools merges the registry's pools with the pair listing into one set
// keyed by pool address, capped to bound downstream cost. The strongest LP
// lock across all pools becomes the token's lock signal.
func (c *Collector) foldPools(s *ScoreSignals, pools providers.Result[providers.PoolList], pairs providers.Result[providers.PairListing]) {
	merged := make(map[string]PoolSignal)

	if pools.OK {
		for _, p := range pools.Data.Pools {
			merged[p.Address] = PoolSignal{
				Address:       p.Address,
				Dex:           p.Dex,
				LiquidityUsd:  finite(p.LiquidityUsd),
				LpLockSeconds: finite(p.LpLockSeconds),
			}
		}
		s.Evidence["pools"] = map[string]any{"ok": true, "pool_count": len(pools.Data.Pools)}
	} else {
		s.Evidence["pools"] = map[string]any{"ok": false, "error": pools.Err}
	}

	if pairs.OK {
		for _, p := range pairs.Data.Pairs {
			if _, seen := merged[p.Address]; seen {
				continue
			}
			merged[p.Address] = PoolSignal{
				Address:      p.Address,
				Dex:          p.Dex,
				LiquidityUsd: finite(p.LiquidityUsd),
			}
		}
	}

	addrs := make([]string, 0, len(merged))
	for addr := range merged {
		addrs = append(addrs, addr)
	}
	// Deterministic order: deepest pools first, address as tie-break.
	sort.Slice(addrs, func(i, j int) bool {
		li, lj := merged[addrs[i]].LiquidityUsd, merged[addrs[j]].LiquidityUsd
		if vi, vj := deref(li), deref(lj); vi != vj {
			return vi > vj
		}
		return addrs[i] < addrs[j]
	})
	if len(addrs) > c.cfg.MaxPools {
		addrs = addrs[:c.cfg.MaxPools]
	}

	for _, addr := range addrs {
		p := merged[addr]
		s.Pools = append(s.Pools, p)
		if p.LpLockSeconds != nil && (s.LpLockSeconds == nil || *p.LpLockSeconds > *s.LpLockSeconds) {
			s.LpLockSeconds = p.LpLockSeconds
		}
	}
}

func (c *Collector) foldQuote(s *ScoreSignals, res providers.Result[providers.SwapQuote]) {
	if !res.OK {
		s.Evidence["quote"] = map[string]any{"ok": false, "error": res.Err}
		return
	}
	s.SellTaxBps = finite(res.Data.SellTaxBps)
	s.Evidence["quote"] = map[string]any{
		"ok":               true,
		"sell_tax_bps":     s.SellTaxBps,
		"price_impact_pct": finite(res.Data.PriceImpactPct),
	}
}

// foldActors derives behavioral flags from trade activity. Extreme trades
// per unique wallet suggests bots; 24h volume far above pooled liquidity
// suggests wash trading.
func (c *Collector) foldActors(s *ScoreSignals, mkt providers.Result[providers.MarketOverview]) {
	if !mkt.OK {
		return
	}
	trades := finite(mkt.Data.Trades24h)
	wallets := finite(mkt.Data.UniqueWallets24h)
	if trades != nil && wallets != nil && *wallets > 0 {
		perWallet := *trades / *wallets
		if perWallet > c.cfg.BotTradesPerUser {
			s.Actors.BotLikely = true
			s.Actors.Notes = append(s.Actors.Notes, fmt.Sprintf("%.0f trades per unique wallet in 24h", perWallet))
		}
	}
	vol := s.Market.Volume24hUsd
	liq := s.Market.LiquidityUsd
	if vol != nil && liq != nil && *liq > 0 {
		ratio := *vol / *liq
		if ratio > c.cfg.WashVolumeRatio {
			s.Actors.WashLikely = true
			s.Actors.Notes = append(s.Actors.Notes, fmt.Sprintf("24h volume is %.1fx pooled liquidity", ratio))
		}
	}
}

// bestPair picks the deepest pair as the secondary market source.
func bestPair(pairs []providers.Pair) *providers.Pair {
	var best *providers.Pair
	for i := range pairs {
		p := &pairs[i]
		if best == nil || deref(p.LiquidityUsd) > deref(best.LiquidityUsd) {
			best = p
		}
	}
	return best
}

// relativeDivergence returns |a-b| relative to the larger magnitude, or 0
// when either side is missing. Relative thresholds scale with token size.
func relativeDivergence(a, b *float64) float64 {
	if a == nil || b == nil {
		return 0
	}
	larger := math.Max(math.Abs(*a), math.Abs(*b))
	if larger == 0 {
		return 0
	}
	return math.Abs(*a-*b) / larger
}

// finite passes through a pointer only when it holds a finite value.
func finite(f *float64) *float64 {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return nil
	}
	return f
}

func firstNonNil(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func maxNonNil(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *b > *a {
		return b
	}
	return a
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
