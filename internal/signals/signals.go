// Package signals collects provider results for one token and folds them
// into a single ScoreSignals value the scoring engine consumes.
package signals

// PoolSignal is one de-duplicated pool entry in the merged pool set.
type PoolSignal struct {
	Address       string   `json:"address"`
	Dex           string   `json:"dex,omitempty"`
	LiquidityUsd  *float64 `json:"liquidity_usd"`
	LpLockSeconds *float64 `json:"lp_lock_seconds"`
}

// MarketSignals aggregates price, liquidity and volume across the market
// sources that responded.
type MarketSignals struct {
	PriceUsd     *float64 `json:"price_usd"`
	LiquidityUsd *float64 `json:"liquidity_usd"`
	Volume24hUsd *float64 `json:"volume_24h_usd"`
	SourcesUsed  []string `json:"sources_used"`
}

// ActorSignals carries heuristic trading-behavior flags.
type ActorSignals struct {
	BotLikely  bool     `json:"bot_likely"`
	WashLikely bool     `json:"wash_likely"`
	Notes      []string `json:"notes,omitempty"`
}

// ScoreSignals is everything the rule set knows about one token. Every
// numeric field is either a finite number or nil, never NaN or an infinity.
type ScoreSignals struct {
	Mint string `json:"mint"`

	MintActive            *bool    `json:"mint_active"`
	LpLockSeconds         *float64 `json:"lp_lock_seconds"`
	Top10ConcentrationPct *float64 `json:"top10_concentration_pct"`
	SellTaxBps            *float64 `json:"sell_tax_bps"`

	SourcesOk    int  `json:"sources_ok"`
	SourcesTotal int  `json:"sources_total"`
	DataConflict bool `json:"data_conflict"`

	Market MarketSignals `json:"market"`
	Pools  []PoolSignal  `json:"pools"`
	Actors ActorSignals  `json:"actors"`

	// Evidence keeps the raw per-source numbers that produced the signals,
	// keyed by provider name, for auditability.
	Evidence map[string]any `json:"evidence"`
}
