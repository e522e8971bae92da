package explain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/signals"
)

func ptr(f float64) *float64 { return &f }
func bptr(b bool) *bool      { return &b }

func testExplainer() *Explainer {
	return New(config.Default().Scoring)
}

func TestNoReasonsForCleanSignals(t *testing.T) {
	s := &signals.ScoreSignals{
		MintActive:   bptr(true),
		SourcesOk:    5,
		SourcesTotal: 5,
	}
	require.Empty(t, testExplainer().Generate(s))
}

func TestReasonOrderIsRuleOrder(t *testing.T) {
	s := &signals.ScoreSignals{
		MintActive:            bptr(false),
		LpLockSeconds:         ptr(90 * 86400.0),
		Top10ConcentrationPct: ptr(95),
		SellTaxBps:            ptr(1200),
		DataConflict:          true,
		SourcesOk:             3,
		SourcesTotal:          5,
		Market:                signals.MarketSignals{LiquidityUsd: ptr(500)},
		Actors:                signals.ActorSignals{BotLikely: true, WashLikely: true},
	}

	reasons := testExplainer().Generate(s)
	codes := make([]string, len(reasons))
	for i, r := range reasons {
		codes[i] = r.Code
	}

	require.Equal(t, []string{
		CodeMintNotActive,
		CodeLpLocked,
		CodeHolderConcentration,
		CodeSellTax,
		CodeDataConflict,
		CodeLowLiquidity,
		CodeBotActivity,
		CodeWashLikely,
		CodeDegradedSources,
	}, codes)
}

func TestDegradedSourcesAlwaysLast(t *testing.T) {
	s := &signals.ScoreSignals{
		MintActive:   bptr(false),
		SourcesOk:    4,
		SourcesTotal: 5,
	}
	reasons := testExplainer().Generate(s)

	require.Len(t, reasons, 2)
	require.Equal(t, CodeDegradedSources, reasons[len(reasons)-1].Code)
}

func TestSeverityScalesWithExtremity(t *testing.T) {
	mild := &signals.ScoreSignals{Top10ConcentrationPct: ptr(55), SourcesOk: 5, SourcesTotal: 5, MintActive: bptr(true)}
	severe := &signals.ScoreSignals{Top10ConcentrationPct: ptr(95), SourcesOk: 5, SourcesTotal: 5, MintActive: bptr(true)}

	mildReasons := testExplainer().Generate(mild)
	severeReasons := testExplainer().Generate(severe)

	require.Equal(t, SeverityLow, mildReasons[0].Severity)
	require.Equal(t, SeverityHigh, severeReasons[0].Severity)
}

func TestDegradedSeverityByCoverage(t *testing.T) {
	cases := []struct {
		ok, total int
		want      Severity
	}{
		{0, 5, SeverityHigh},
		{2, 5, SeverityMedium},
		{4, 5, SeverityLow},
	}
	for _, tc := range cases {
		s := &signals.ScoreSignals{MintActive: bptr(true), SourcesOk: tc.ok, SourcesTotal: tc.total}
		reasons := testExplainer().Generate(s)
		require.Equal(t, tc.want, reasons[len(reasons)-1].Severity, "ok=%d total=%d", tc.ok, tc.total)
	}
}

func TestReasonsCarryEvidence(t *testing.T) {
	s := &signals.ScoreSignals{
		MintActive:   bptr(true),
		SellTaxBps:   ptr(600),
		SourcesOk:    5,
		SourcesTotal: 5,
	}
	reasons := testExplainer().Generate(s)

	require.Len(t, reasons, 1)
	require.Equal(t, CodeSellTax, reasons[0].Code)
	require.Equal(t, SeverityMedium, reasons[0].Severity)
	require.Equal(t, 600.0, reasons[0].Evidence["sell_tax_bps"])
	require.Contains(t, reasons[0].Detail, "600")
}
