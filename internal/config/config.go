// Package config loads and validates the scanner configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete scanner configuration.
type Config struct {
	Providers  ProvidersConfig  `yaml:"providers"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Collector  CollectorConfig  `yaml:"collector"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Server     ServerConfig     `yaml:"server"`
}

// ProvidersConfig holds per-provider settings for every upstream source.
type ProvidersConfig struct {
	ChainMeta ProviderConfig `yaml:"chainmeta"`
	Market    ProviderConfig `yaml:"market"`
	Pairs     ProviderConfig `yaml:"pairs"`
	Pools     ProviderConfig `yaml:"pools"`
	Quote     ProviderConfig `yaml:"quote"`
}

// ProviderConfig configures one upstream provider endpoint.
type ProviderConfig struct {
	BaseURL   string  `yaml:"base_url"`
	APIKeyEnv string  `yaml:"api_key_env"` // env var holding the credential, empty for keyless providers
	TimeoutMS int     `yaml:"timeout_ms"`
	TTLSecs   int     `yaml:"ttl_secs"` // cache TTL for this provider's responses
	RPS       float64 `yaml:"rps"`
	Burst     int     `yaml:"burst"`

	// APIKey is resolved from APIKeyEnv at load time, never serialized.
	APIKey string `yaml:"-"`
}

// ResilienceConfig configures the shared cache, circuit breakers and fetch guard.
type ResilienceConfig struct {
	FailureThreshold int   `yaml:"failure_threshold"` // consecutive failures to open a breaker
	CooldownMS       int   `yaml:"cooldown_ms"`       // open-state duration before a half-open probe
	CacheMaxEntries  int   `yaml:"cache_max_entries"`
	FetchRetries     int   `yaml:"fetch_retries"`    // extra attempts on 429/5xx/timeout
	FetchBackoffMS   int   `yaml:"fetch_backoff_ms"` // base backoff, multiplied by attempt number
	MaxBodyBytes     int64 `yaml:"max_body_bytes"`
}

// CollectorConfig tunes signal folding and cross-source conflict detection.
type CollectorConfig struct {
	PriceConflictPct  float64 `yaml:"price_conflict_pct"`  // relative price divergence flagged as conflict
	VolumeConflictPct float64 `yaml:"volume_conflict_pct"` // relative 24h volume divergence flagged as conflict
	MaxPools          int     `yaml:"max_pools"`           // cap on merged pool listings
	BotTradesPerUser  float64 `yaml:"bot_trades_per_user"` // trades per unique wallet above which bots are likely
	WashVolumeRatio   float64 `yaml:"wash_volume_ratio"`   // 24h volume over liquidity above which wash trading is likely
}

// ScoringConfig holds every rule delta and threshold. The values mirror the
// production rule table; they are configuration rather than literals so they
// can be tuned without a code change.
type ScoringConfig struct {
	BaseFull int `yaml:"base_full"` // all sources responded
	BaseHalf int `yaml:"base_half"` // at least half responded
	BaseLow  int `yaml:"base_low"`  // fewer than half responded

	MintInactivePenalty int `yaml:"mint_inactive_penalty"`

	LpLockYearBonus    int `yaml:"lp_lock_year_bonus"`
	LpLockQuarterBonus int `yaml:"lp_lock_quarter_bonus"`
	LpLockMonthBonus   int `yaml:"lp_lock_month_bonus"`
	LpLockAnyBonus     int `yaml:"lp_lock_any_bonus"`

	ConcentrationSeverePct     float64 `yaml:"concentration_severe_pct"`
	ConcentrationSeverePenalty int     `yaml:"concentration_severe_penalty"`
	ConcentrationHighPct       float64 `yaml:"concentration_high_pct"`
	ConcentrationHighPenalty   int     `yaml:"concentration_high_penalty"`
	ConcentrationModeratePct   float64 `yaml:"concentration_moderate_pct"`
	ConcentrationModeratePen   int     `yaml:"concentration_moderate_penalty"`

	SellTaxSevereBps     float64 `yaml:"sell_tax_severe_bps"`
	SellTaxSeverePenalty int     `yaml:"sell_tax_severe_penalty"`
	SellTaxHighBps       float64 `yaml:"sell_tax_high_bps"`
	SellTaxHighPenalty   int     `yaml:"sell_tax_high_penalty"`
	SellTaxLowBps        float64 `yaml:"sell_tax_low_bps"`
	SellTaxLowPenalty    int     `yaml:"sell_tax_low_penalty"`

	ConflictPenalty int `yaml:"conflict_penalty"`

	LiquidityFloorUSD     float64 `yaml:"liquidity_floor_usd"`
	LiquidityFloorPenalty int     `yaml:"liquidity_floor_penalty"`
	LiquidityThinUSD      float64 `yaml:"liquidity_thin_usd"`
	LiquidityThinPenalty  int     `yaml:"liquidity_thin_penalty"`
	LiquidityOkUSD        float64 `yaml:"liquidity_ok_usd"`
	LiquidityOkPenalty    int     `yaml:"liquidity_ok_penalty"`

	BotPenalty  int `yaml:"bot_penalty"`
	WashPenalty int `yaml:"wash_penalty"`

	SafeBadgeMin    int `yaml:"safe_badge_min"`
	CautionBadgeMin int `yaml:"caution_badge_min"`
}

// ServerConfig configures the HTTP interface started by the serve command.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the configuration shipped out of the box.
func Default() Config {
	return Config{
		Providers: ProvidersConfig{
			ChainMeta: ProviderConfig{
				BaseURL:   "https://api.helius.xyz",
				APIKeyEnv: "TOKENSCAN_CHAINMETA_API_KEY",
				TimeoutMS: 8000,
				TTLSecs:   21600, // static metadata, 6h
				RPS:       5,
				Burst:     10,
			},
			Market: ProviderConfig{
				BaseURL:   "https://public-api.birdeye.so",
				APIKeyEnv: "TOKENSCAN_MARKET_API_KEY",
				TimeoutMS: 8000,
				TTLSecs:   15, // volatile price data
				RPS:       2,
				Burst:     5,
			},
			Pairs: ProviderConfig{
				BaseURL:   "https://api.dexscreener.com",
				TimeoutMS: 8000,
				TTLSecs:   300, // pair data, 5min
				RPS:       5,
				Burst:     10,
			},
			Pools: ProviderConfig{
				BaseURL:   "https://api.raydium.io",
				TimeoutMS: 8000,
				TTLSecs:   300, // pool data, 5min
				RPS:       5,
				Burst:     10,
			},
			Quote: ProviderConfig{
				BaseURL:   "https://quote-api.jup.ag",
				TimeoutMS: 8000,
				TTLSecs:   15, // quotes go stale immediately
				RPS:       5,
				Burst:     10,
			},
		},
		Resilience: ResilienceConfig{
			FailureThreshold: 5,
			CooldownMS:       60000,
			CacheMaxEntries:  10000,
			FetchRetries:     2,
			FetchBackoffMS:   500,
			MaxBodyBytes:     2 << 20,
		},
		Collector: CollectorConfig{
			PriceConflictPct:  0.25,
			VolumeConflictPct: 0.50,
			MaxPools:          30,
			BotTradesPerUser:  50,
			WashVolumeRatio:   10,
		},
		Scoring: ScoringConfig{
			BaseFull: 70,
			BaseHalf: 60,
			BaseLow:  50,

			MintInactivePenalty: 25,

			LpLockYearBonus:    15,
			LpLockQuarterBonus: 10,
			LpLockMonthBonus:   5,
			LpLockAnyBonus:     2,

			ConcentrationSeverePct:     90,
			ConcentrationSeverePenalty: 30,
			ConcentrationHighPct:       70,
			ConcentrationHighPenalty:   20,
			ConcentrationModeratePct:   50,
			ConcentrationModeratePen:   10,

			SellTaxSevereBps:     1000,
			SellTaxSeverePenalty: 20,
			SellTaxHighBps:       500,
			SellTaxHighPenalty:   10,
			SellTaxLowBps:        100,
			SellTaxLowPenalty:    5,

			ConflictPenalty: 15,

			LiquidityFloorUSD:     1000,
			LiquidityFloorPenalty: 20,
			LiquidityThinUSD:      10000,
			LiquidityThinPenalty:  10,
			LiquidityOkUSD:        50000,
			LiquidityOkPenalty:    5,

			BotPenalty:  10,
			WashPenalty: 15,

			SafeBadgeMin:    80,
			CautionBadgeMin: 50,
		},
		Server: ServerConfig{
			ListenAddr: ":8087",
		},
	}
}

// Load reads a YAML config file, overlays it on the defaults, resolves
// credentials from the environment and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.resolveCredentials()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) resolveCredentials() {
	for _, p := range []*ProviderConfig{
		&c.Providers.ChainMeta,
		&c.Providers.Market,
		&c.Providers.Pairs,
		&c.Providers.Pools,
		&c.Providers.Quote,
	} {
		if p.APIKeyEnv != "" {
			p.APIKey = os.Getenv(p.APIKeyEnv)
		}
	}
}

// Validate checks the configuration for values that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.Resilience.FailureThreshold <= 0 {
		return fmt.Errorf("resilience.failure_threshold must be positive, got %d", c.Resilience.FailureThreshold)
	}
	if c.Resilience.CooldownMS <= 0 {
		return fmt.Errorf("resilience.cooldown_ms must be positive, got %d", c.Resilience.CooldownMS)
	}
	if c.Resilience.CacheMaxEntries <= 0 {
		return fmt.Errorf("resilience.cache_max_entries must be positive, got %d", c.Resilience.CacheMaxEntries)
	}
	if c.Resilience.MaxBodyBytes <= 0 {
		return fmt.Errorf("resilience.max_body_bytes must be positive, got %d", c.Resilience.MaxBodyBytes)
	}
	if c.Collector.PriceConflictPct <= 0 || c.Collector.PriceConflictPct >= 1 {
		return fmt.Errorf("collector.price_conflict_pct must be in (0,1), got %f", c.Collector.PriceConflictPct)
	}
	if c.Collector.VolumeConflictPct <= 0 || c.Collector.VolumeConflictPct >= 1 {
		return fmt.Errorf("collector.volume_conflict_pct must be in (0,1), got %f", c.Collector.VolumeConflictPct)
	}
	if c.Collector.MaxPools <= 0 {
		return fmt.Errorf("collector.max_pools must be positive, got %d", c.Collector.MaxPools)
	}
	if c.Scoring.SafeBadgeMin <= c.Scoring.CautionBadgeMin {
		return fmt.Errorf("scoring.safe_badge_min (%d) must exceed scoring.caution_badge_min (%d)",
			c.Scoring.SafeBadgeMin, c.Scoring.CautionBadgeMin)
	}
	for name, p := range map[string]ProviderConfig{
		"chainmeta": c.Providers.ChainMeta,
		"market":    c.Providers.Market,
		"pairs":     c.Providers.Pairs,
		"pools":     c.Providers.Pools,
		"quote":     c.Providers.Quote,
	} {
		if p.BaseURL == "" {
			return fmt.Errorf("providers.%s.base_url must not be empty", name)
		}
		if p.TimeoutMS <= 0 {
			return fmt.Errorf("providers.%s.timeout_ms must be positive, got %d", name, p.TimeoutMS)
		}
		if p.TTLSecs <= 0 {
			return fmt.Errorf("providers.%s.ttl_secs must be positive, got %d", name, p.TTLSecs)
		}
	}
	return nil
}
