// Package explain turns collected signals into human-readable reasons that
// justify a score. Generation is deterministic and preserves rule order, so
// identical signals always yield identical reason lists.
package explain

import (
	"fmt"

	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/signals"
)

// Severity grades how alarming a triggered condition is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Stable reason codes consumed by the UI and by alerting.
const (
	CodeMintNotActive       = "MINT_NOT_ACTIVE"
	CodeLpLocked            = "LP_LOCKED"
	CodeHolderConcentration = "HOLDER_CONCENTRATION"
	CodeSellTax             = "SELL_TAX"
	CodeDataConflict        = "DATA_CONFLICT"
	CodeLowLiquidity        = "LOW_LIQUIDITY"
	CodeBotActivity         = "BOT_ACTIVITY"
	CodeWashLikely          = "WASH_LIKELY"
	CodeDegradedSources     = "DEGRADED_SOURCES"
)

// Reason is one human-readable explanation record.
type Reason struct {
	Code     string         `json:"code"`
	Title    string         `json:"title"`
	Detail   string         `json:"detail"`
	Severity Severity       `json:"severity"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Explainer derives reasons from signals using the same thresholds the rule
// set scores with.
type Explainer struct {
	cfg config.ScoringConfig
}

// New builds an explainer over the scoring thresholds.
func New(cfg config.ScoringConfig) *Explainer {
	return &Explainer{cfg: cfg}
}

// Generate emits one reason per non-trivial condition, in rule evaluation
// order. A degraded-sources reason is always appended last when any source
// failed to contribute.
func (e *Explainer) Generate(s *signals.ScoreSignals) []Reason {
	reasons := make([]Reason, 0, 8)

	if s.MintActive != nil && !*s.MintActive {
		reasons = append(reasons, Reason{
			Code:     CodeMintNotActive,
			Title:    "Mint is not active",
			Detail:   "The token's mint account is not in an active state; transfers or new liquidity may be restricted.",
			Severity: SeverityHigh,
			Evidence: map[string]any{"mint_active": false},
		})
	}

	if s.LpLockSeconds != nil && *s.LpLockSeconds > 0 {
		days := *s.LpLockSeconds / 86400
		reasons = append(reasons, Reason{
			Code:     CodeLpLocked,
			Title:    "Liquidity is locked",
			Detail:   fmt.Sprintf("LP tokens are locked for about %.0f days, reducing rug-pull risk.", days),
			Severity: SeverityLow,
			Evidence: map[string]any{"lp_lock_seconds": *s.LpLockSeconds},
		})
	}

	if pct := s.Top10ConcentrationPct; pct != nil && *pct >= e.cfg.ConcentrationModeratePct {
		sev := SeverityLow
		switch {
		case *pct >= e.cfg.ConcentrationSeverePct:
			sev = SeverityHigh
		case *pct >= e.cfg.ConcentrationHighPct:
			sev = SeverityMedium
		}
		reasons = append(reasons, Reason{
			Code:     CodeHolderConcentration,
			Title:    "Holdings concentrated in few wallets",
			Detail:   fmt.Sprintf("The top 10 holders control %.1f%% of supply.", *pct),
			Severity: sev,
			Evidence: map[string]any{"top10_concentration_pct": *pct},
		})
	}

	if tax := s.SellTaxBps; tax != nil && *tax >= e.cfg.SellTaxLowBps {
		sev := SeverityLow
		switch {
		case *tax >= e.cfg.SellTaxSevereBps:
			sev = SeverityHigh
		case *tax >= e.cfg.SellTaxHighBps:
			sev = SeverityMedium
		}
		reasons = append(reasons, Reason{
			Code:     CodeSellTax,
			Title:    "Token charges a sell tax",
			Detail:   fmt.Sprintf("Selling incurs a %.0f bps (%.1f%%) tax.", *tax, *tax/100),
			Severity: sev,
			Evidence: map[string]any{"sell_tax_bps": *tax},
		})
	}

	if s.DataConflict {
		reasons = append(reasons, Reason{
			Code:     CodeDataConflict,
			Title:    "Data sources disagree",
			Detail:   "Independent providers reported materially different market numbers for this token.",
			Severity: SeverityMedium,
			Evidence: map[string]any{"notes": s.Actors.Notes},
		})
	}

	if liq := s.Market.LiquidityUsd; liq != nil && *liq < e.cfg.LiquidityOkUSD {
		sev := SeverityLow
		switch {
		case *liq < e.cfg.LiquidityFloorUSD:
			sev = SeverityHigh
		case *liq < e.cfg.LiquidityThinUSD:
			sev = SeverityMedium
		}
		reasons = append(reasons, Reason{
			Code:     CodeLowLiquidity,
			Title:    "Liquidity is thin",
			Detail:   fmt.Sprintf("Only $%.0f of pooled liquidity backs this token; exits may be costly or impossible.", *liq),
			Severity: sev,
			Evidence: map[string]any{"liquidity_usd": *liq},
		})
	}

	if s.Actors.BotLikely {
		reasons = append(reasons, Reason{
			Code:     CodeBotActivity,
			Title:    "Bot trading likely",
			Detail:   "Trade counts per unique wallet indicate automated trading activity.",
			Severity: SeverityMedium,
			Evidence: map[string]any{"notes": s.Actors.Notes},
		})
	}

	if s.Actors.WashLikely {
		reasons = append(reasons, Reason{
			Code:     CodeWashLikely,
			Title:    "Wash trading likely",
			Detail:   "Reported volume is far out of proportion to pooled liquidity.",
			Severity: SeverityHigh,
			Evidence: map[string]any{"notes": s.Actors.Notes},
		})
	}

	if s.SourcesOk < s.SourcesTotal {
		sev := SeverityLow
		switch {
		case s.SourcesOk == 0:
			sev = SeverityHigh
		case s.SourcesOk*2 < s.SourcesTotal:
			sev = SeverityMedium
		}
		reasons = append(reasons, Reason{
			Code:     CodeDegradedSources,
			Title:    "Some data sources unavailable",
			Detail:   fmt.Sprintf("Only %d of %d data sources responded; the score is based on partial data.", s.SourcesOk, s.SourcesTotal),
			Severity: sev,
			Evidence: map[string]any{"sources_ok": s.SourcesOk, "sources_total": s.SourcesTotal},
		})
	}

	return reasons
}
