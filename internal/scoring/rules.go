// Package scoring implements the rule set and engine that turn collected
// signals into a clamped score, a badge and a confidence value.
package scoring

import (
	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/signals"
)

// Rule is one pure scoring rule. Rules have no state and no side effects;
// each maps a signal set to a single score delta.
type Rule struct {
	Name string
	Eval func(cfg config.ScoringConfig, s *signals.ScoreSignals) int
}

// ruleTable returns the rules in their fixed evaluation order. The order is
// part of the engine's determinism contract and mirrors the reason order
// produced by the explainer.
func ruleTable() []Rule {
	return []Rule{
		{Name: "base_score", Eval: baseScore},
		{Name: "mint_inactive", Eval: mintInactive},
		{Name: "lp_lock", Eval: lpLockBonus},
		{Name: "holder_concentration", Eval: holderConcentration},
		{Name: "sell_tax", Eval: sellTax},
		{Name: "data_conflict", Eval: dataConflict},
		{Name: "low_liquidity", Eval: lowLiquidity},
		{Name: "bot_activity", Eval: botActivity},
		{Name: "wash_trading", Eval: washTrading},
	}
}

// baseScore rewards source coverage: full coverage starts high, partial
// coverage starts lower. Zero attempted sources is treated like poor
// coverage rather than an error.
func baseScore(cfg config.ScoringConfig, s *signals.ScoreSignals) int {
	if s.SourcesTotal == 0 {
		return cfg.BaseLow
	}
	ratio := float64(s.SourcesOk) / float64(s.SourcesTotal)
	switch {
	case ratio == 1.0:
		return cfg.BaseFull
	case ratio >= 0.5:
		return cfg.BaseHalf
	default:
		return cfg.BaseLow
	}
}

func mintInactive(cfg config.ScoringConfig, s *signals.ScoreSignals) int {
	if s.MintActive != nil && !*s.MintActive {
		return -cfg.MintInactivePenalty
	}
	return 0
}

func lpLockBonus(cfg config.ScoringConfig, s *signals.ScoreSignals) int {
	if s.LpLockSeconds == nil || *s.LpLockSeconds <= 0 {
		return 0
	}
	const day = 86400.0
	lock := *s.LpLockSeconds
	switch {
	case lock >= 365*day:
		return cfg.LpLockYearBonus
	case lock >= 90*day:
		return cfg.LpLockQuarterBonus
	case lock >= 30*day:
		return cfg.LpLockMonthBonus
	default:
		return cfg.LpLockAnyBonus
	}
}

func holderConcentration(cfg config.ScoringConfig, s *signals.ScoreSignals) int {
	if s.Top10ConcentrationPct == nil {
		return 0
	}
	pct := *s.Top10ConcentrationPct
	switch {
	case pct >= cfg.ConcentrationSeverePct:
		return -cfg.ConcentrationSeverePenalty
	case pct >= cfg.ConcentrationHighPct:
		return -cfg.ConcentrationHighPenalty
	case pct >= cfg.ConcentrationModeratePct:
		return -cfg.ConcentrationModeratePen
	default:
		return 0
	}
}

func sellTax(cfg config.ScoringConfig, s *signals.ScoreSignals) int {
	if s.SellTaxBps == nil {
		return 0
	}
	bps := *s.SellTaxBps
	switch {
	case bps >= cfg.SellTaxSevereBps:
		return -cfg.SellTaxSeverePenalty
	case bps >= cfg.SellTaxHighBps:
		return -cfg.SellTaxHighPenalty
	case bps >= cfg.SellTaxLowBps:
		return -cfg.SellTaxLowPenalty
	default:
		return 0
	}
}

func dataConflict(cfg config.ScoringConfig, s *signals.ScoreSignals) int {
	if s.DataConflict {
		return -cfg.ConflictPenalty
	}
	return 0
}

func lowLiquidity(cfg config.ScoringConfig, s *signals.ScoreSignals) int {
	if s.Market.LiquidityUsd == nil {
		return 0
	}
	liq := *s.Market.LiquidityUsd
	switch {
	case liq < cfg.LiquidityFloorUSD:
		return -cfg.LiquidityFloorPenalty
	case liq < cfg.LiquidityThinUSD:
		return -cfg.LiquidityThinPenalty
	case liq < cfg.LiquidityOkUSD:
		return -cfg.LiquidityOkPenalty
	default:
		return 0
	}
}

func botActivity(cfg config.ScoringConfig, s *signals.ScoreSignals) int {
	if s.Actors.BotLikely {
		return -cfg.BotPenalty
	}
	return 0
}

func washTrading(cfg config.ScoringConfig, s *signals.ScoreSignals) int {
	if s.Actors.WashLikely {
		return -cfg.WashPenalty
	}
	return 0
}
