package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/fetch"
	"github.com/cryptoguard/tokenscan/internal/resilience"
)

const marketName = "market"

// MarketOverview is the normalized market snapshot from the aggregator.
type MarketOverview struct {
	PriceUsd         *float64 `json:"price_usd"`
	LiquidityUsd     *float64 `json:"liquidity_usd"`
	Volume24hUsd     *float64 `json:"volume_24h_usd"`
	Trades24h        *float64 `json:"trades_24h"`
	UniqueWallets24h *float64 `json:"unique_wallets_24h"`
}

// MarketClient reads price, liquidity and activity numbers from the
// market/liquidity aggregator. Credentialed; fails closed without a key.
type MarketClient struct {
	cfg  config.ProviderConfig
	res  *resilience.Context
	http *fetch.Client
}

// NewMarketClient builds the market aggregator adapter.
func NewMarketClient(cfg config.ProviderConfig, res *resilience.Context, httpOpts fetch.Options) *MarketClient {
	httpOpts.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	res.Limiter.Configure(marketName, cfg.RPS, cfg.Burst)
	return &MarketClient{cfg: cfg, res: res, http: fetch.NewClient(httpOpts)}
}

// TokenOverview fetches the market snapshot for mint.
func (c *MarketClient) TokenOverview(ctx context.Context, mint string) Result[MarketOverview] {
	if !credentialUsable(c.cfg.APIKey) {
		return Degraded[MarketOverview]("market api key missing or malformed")
	}

	url := fmt.Sprintf("%s/defi/token_overview?address=%s", strings.TrimRight(c.cfg.BaseURL, "/"), mint)

	return invoke(ctx, call[MarketOverview]{
		res:      c.res,
		http:     c.http,
		provider: marketName,
		method:   "token_overview",
		params:   map[string]string{"address": mint},
		url:      url,
		headers:  map[string]string{"X-API-KEY": c.cfg.APIKey},
		ttl:      time.Duration(c.cfg.TTLSecs) * time.Second,
		validate: validateMarketEnvelope,
		decode:   decodeMarketOverview,
	})
}

// validateMarketEnvelope rejects the aggregator's "success": false envelope,
// which arrives with HTTP 200.
func validateMarketEnvelope(data any) error {
	if ok := Boolean(Field(data, "success")); ok != nil && !*ok {
		msg := Str(Field(data, "message"))
		if msg == "" {
			msg = "success=false"
		}
		return fmt.Errorf("upstream error: %s", msg)
	}
	return rejectEmbeddedError(data)
}

func decodeMarketOverview(data any) (MarketOverview, error) {
	obj, ok := Field(data, "data").(map[string]any)
	if !ok {
		return MarketOverview{}, errors.New("market payload has no data object")
	}

	return MarketOverview{
		PriceUsd:         Num(obj["price"]),
		LiquidityUsd:     Num(obj["liquidity"]),
		Volume24hUsd:     Num(obj["v24hUSD"]),
		Trades24h:        Num(obj["trade24h"]),
		UniqueWallets24h: Num(obj["uniqueWallet24h"]),
	}, nil
}
