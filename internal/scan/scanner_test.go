package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/providers"
	"github.com/cryptoguard/tokenscan/internal/resilience"
	"github.com/cryptoguard/tokenscan/internal/scoring"
	"github.com/cryptoguard/tokenscan/internal/signals"
)

type healthySources struct{}

func (healthySources) TokenMetadata(ctx context.Context, mint string) providers.Result[providers.AssetMeta] {
	active := true
	return providers.Result[providers.AssetMeta]{OK: true, Data: providers.AssetMeta{
		Symbol: "TEST", MintActive: &active, Top10HolderPct: f(20),
	}}
}

func (healthySources) TokenOverview(ctx context.Context, mint string) providers.Result[providers.MarketOverview] {
	return providers.Result[providers.MarketOverview]{OK: true, Data: providers.MarketOverview{
		PriceUsd: f(1.5), LiquidityUsd: f(120000), Volume24hUsd: f(40000),
		Trades24h: f(900), UniqueWallets24h: f(300),
	}}
}

func (healthySources) TokenPairs(ctx context.Context, mint string) providers.Result[providers.PairListing] {
	return providers.Result[providers.PairListing]{OK: true, Data: providers.PairListing{
		Pairs: []providers.Pair{{Address: "pair1", Dex: "raydium", PriceUsd: f(1.52), LiquidityUsd: f(110000)}},
	}}
}

func (healthySources) PoolsForMint(ctx context.Context, mint string) providers.Result[providers.PoolList] {
	return providers.Result[providers.PoolList]{OK: true, Data: providers.PoolList{
		Pools: []providers.Pool{{Address: "pool1", Dex: "raydium", LiquidityUsd: f(110000), LpLockSeconds: f(400 * 24 * 3600)}},
	}}
}

func (healthySources) SellQuote(ctx context.Context, mint string) providers.Result[providers.SwapQuote] {
	return providers.Result[providers.SwapQuote]{OK: true, Data: providers.SwapQuote{SellTaxBps: f(0)}}
}

func f(v float64) *float64 { return &v }

func TestScanHealthyToken(t *testing.T) {
	cfg := config.Default()
	res := resilience.NewTestContext()
	collector := signals.NewCollector(cfg.Collector, healthySources{}, healthySources{}, healthySources{}, healthySources{}, healthySources{})
	scanner := NewWithCollector(cfg.Scoring, res, collector)

	result := scanner.Scan(context.Background(), "So11111111111111111111111111111111111111112")

	require.NotEmpty(t, result.ScanID)
	require.Equal(t, "So11111111111111111111111111111111111111112", result.Mint)
	// 5/5 sources, active mint, >1y lock, low concentration, no tax: 70+15=85.
	require.Equal(t, 85, result.Score)
	require.Equal(t, scoring.BadgeSafe, result.Badge)
	require.Equal(t, 1.0, result.Confidence)
}

func TestScanIDsAreUnique(t *testing.T) {
	cfg := config.Default()
	res := resilience.NewTestContext()
	collector := signals.NewCollector(cfg.Collector, healthySources{}, healthySources{}, healthySources{}, healthySources{}, healthySources{})
	scanner := NewWithCollector(cfg.Scoring, res, collector)

	a := scanner.Scan(context.Background(), "mintA")
	b := scanner.Scan(context.Background(), "mintA")
	require.NotEqual(t, a.ScanID, b.ScanID)
}
