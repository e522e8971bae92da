package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/explain"
	"github.com/cryptoguard/tokenscan/internal/signals"
)

func ptr(f float64) *float64 { return &f }
func bptr(b bool) *bool      { return &b }

func testEngine() *Engine {
	return NewEngine(config.Default().Scoring)
}

func baseSignals(ok, total int) *signals.ScoreSignals {
	return &signals.ScoreSignals{
		Mint:         "mint1",
		SourcesOk:    ok,
		SourcesTotal: total,
		Evidence:     map[string]any{},
	}
}

func TestClampScore(t *testing.T) {
	require.Equal(t, 0, ClampScore(-10))
	require.Equal(t, 100, ClampScore(150))
	require.Equal(t, 51, ClampScore(50.6), "rounds before clamping")
	require.Equal(t, 100, ClampScore(100.4))
	require.Equal(t, 0, ClampScore(-0.4))

	for _, x := range []float64{-1000, -1, 0, 49.9, 50, 99.5, 100, 1000} {
		got := ClampScore(x)
		require.GreaterOrEqual(t, got, 0)
		require.LessOrEqual(t, got, 100)
	}
}

func TestScoreToBadgeBoundaries(t *testing.T) {
	e := testEngine()
	require.Equal(t, BadgeSafe, e.ScoreToBadge(80))
	require.Equal(t, BadgeSafe, e.ScoreToBadge(100))
	require.Equal(t, BadgeCaution, e.ScoreToBadge(79))
	require.Equal(t, BadgeCaution, e.ScoreToBadge(50))
	require.Equal(t, BadgeHighRisk, e.ScoreToBadge(49))
	require.Equal(t, BadgeHighRisk, e.ScoreToBadge(0))
}

func TestBaseScoreFromSources(t *testing.T) {
	cfg := config.Default().Scoring
	cases := []struct {
		ok, total, want int
	}{
		{4, 4, 70},
		{2, 4, 60},
		{1, 4, 50},
		{0, 4, 50},
		{0, 0, 50},
	}
	for _, tc := range cases {
		got := baseScore(cfg, baseSignals(tc.ok, tc.total))
		require.Equal(t, tc.want, got, "baseScore(%d,%d)", tc.ok, tc.total)
	}
}

func TestConfidenceMonotonicInCoverage(t *testing.T) {
	full := Confidence(baseSignals(4, 4))
	half := Confidence(baseSignals(2, 4))
	require.GreaterOrEqual(t, full, half)
}

func TestConfidenceConflictLowers(t *testing.T) {
	clean := baseSignals(4, 4)
	conflicted := baseSignals(4, 4)
	conflicted.DataConflict = true
	require.Greater(t, Confidence(clean), Confidence(conflicted))
}

func TestConfidenceUnknownMintFactor(t *testing.T) {
	s := baseSignals(4, 4)
	s.MintActive = bptr(true)
	require.Equal(t, 0.9, Confidence(baseSignals(4, 4)), "unknown mint shaves confidence")
	require.Equal(t, 1.0, Confidence(s))
}

func TestConfidenceZeroSourcesTotal(t *testing.T) {
	s := baseSignals(0, 0)
	s.DataConflict = true
	// Coverage factor is neutral; only the conflict multiplier applies.
	require.Equal(t, 0.7, Confidence(s))
}

func TestRunEngineShape(t *testing.T) {
	e := testEngine()
	s := baseSignals(3, 5)
	result := e.Run(s)

	require.GreaterOrEqual(t, result.Score, 0)
	require.LessOrEqual(t, result.Score, 100)
	require.Contains(t, []Badge{BadgeSafe, BadgeCaution, BadgeHighRisk}, result.Badge)
	require.GreaterOrEqual(t, result.Confidence, 0.0)
	require.LessOrEqual(t, result.Confidence, 1.0)
	require.NotNil(t, result.Reasons)
	require.Same(t, s, result.Signals, "signals must be the input value, not a copy")
	require.Len(t, result.Deltas, 9)
}

func TestRunEngineDeterministic(t *testing.T) {
	e := testEngine()
	s := baseSignals(2, 5)
	s.DataConflict = true
	s.Actors.WashLikely = true
	s.Market.LiquidityUsd = ptr(500)

	a := e.Run(s)
	b := e.Run(s)

	require.Equal(t, a.Score, b.Score)
	require.Equal(t, a.Reasons, b.Reasons)
	require.Equal(t, a.Deltas, b.Deltas)
}

func TestScenarioHealthyLockedTokenIsSafe(t *testing.T) {
	s := baseSignals(4, 4)
	s.MintActive = bptr(true)
	s.LpLockSeconds = ptr(365 * 86400.0)

	result := testEngine().Run(s)

	// 70 base + 15 year-long lock.
	require.Equal(t, 85, result.Score)
	require.Equal(t, BadgeSafe, result.Badge)
}

func TestScenarioDegradedInactiveMint(t *testing.T) {
	s := baseSignals(1, 4)
	s.MintActive = bptr(false)

	result := testEngine().Run(s)

	// 50 base - 25 mint penalty.
	require.Equal(t, 25, result.Score)
	require.Less(t, result.Score, 80)
	require.Equal(t, BadgeHighRisk, result.Badge)

	codes := reasonCodes(result.Reasons)
	require.Contains(t, codes, explain.CodeMintNotActive)
	require.Contains(t, codes, explain.CodeDegradedSources)
}

func TestScenarioConflictedWashTraderIsHighRisk(t *testing.T) {
	s := baseSignals(2, 4)
	s.DataConflict = true
	s.Actors.WashLikely = true

	result := testEngine().Run(s)

	require.Less(t, result.Score, 50)
	require.Equal(t, BadgeHighRisk, result.Badge)

	codes := reasonCodes(result.Reasons)
	require.Contains(t, codes, explain.CodeDataConflict)
	require.Contains(t, codes, explain.CodeWashLikely)
}

func TestLpLockTiers(t *testing.T) {
	cfg := config.Default().Scoring
	const day = 86400.0
	cases := []struct {
		lock *float64
		want int
	}{
		{ptr(365 * day), 15},
		{ptr(400 * day), 15},
		{ptr(90 * day), 10},
		{ptr(30 * day), 5},
		{ptr(5 * day), 2},
		{ptr(0), 0},
		{nil, 0},
	}
	for _, tc := range cases {
		s := baseSignals(4, 4)
		s.LpLockSeconds = tc.lock
		require.Equal(t, tc.want, lpLockBonus(cfg, s))
	}
}

func TestConcentrationTiers(t *testing.T) {
	cfg := config.Default().Scoring
	cases := []struct {
		pct  *float64
		want int
	}{
		{ptr(95), -30},
		{ptr(90), -30},
		{ptr(75), -20},
		{ptr(55), -10},
		{ptr(40), 0},
		{nil, 0},
	}
	for _, tc := range cases {
		s := baseSignals(4, 4)
		s.Top10ConcentrationPct = tc.pct
		require.Equal(t, tc.want, holderConcentration(cfg, s))
	}
}

func TestSellTaxTiers(t *testing.T) {
	cfg := config.Default().Scoring
	cases := []struct {
		bps  *float64
		want int
	}{
		{ptr(1500), -20},
		{ptr(1000), -20},
		{ptr(600), -10},
		{ptr(150), -5},
		{ptr(50), 0},
		{nil, 0},
	}
	for _, tc := range cases {
		s := baseSignals(4, 4)
		s.SellTaxBps = tc.bps
		require.Equal(t, tc.want, sellTax(cfg, s))
	}
}

func TestLiquidityTiers(t *testing.T) {
	cfg := config.Default().Scoring
	cases := []struct {
		liq  *float64
		want int
	}{
		{ptr(500), -20},
		{ptr(5000), -10},
		{ptr(25000), -5},
		{ptr(100000), 0},
		{nil, 0},
	}
	for _, tc := range cases {
		s := baseSignals(4, 4)
		s.Market.LiquidityUsd = tc.liq
		require.Equal(t, tc.want, lowLiquidity(cfg, s))
	}
}

func TestActorPenaltiesAdditive(t *testing.T) {
	s := baseSignals(4, 4)
	s.MintActive = bptr(true)
	s.Actors.BotLikely = true
	s.Actors.WashLikely = true

	result := testEngine().Run(s)

	// 70 base - 10 bot - 15 wash.
	require.Equal(t, 45, result.Score)
}

func reasonCodes(reasons []explain.Reason) []string {
	codes := make([]string, len(reasons))
	for i, r := range reasons {
		codes[i] = r.Code
	}
	return codes
}
