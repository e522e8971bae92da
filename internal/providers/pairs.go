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

const pairsName = "pairs"

// Pair is one DEX trading pair for a token.
type Pair struct {
	Address      string   `json:"address"`
	Dex          string   `json:"dex"`
	PriceUsd     *float64 `json:"price_usd"`
	LiquidityUsd *float64 `json:"liquidity_usd"`
	Volume24hUsd *float64 `json:"volume_24h_usd"`
}

// PairListing is the normalized pair list for one token.
type PairListing struct {
	Pairs []Pair `json:"pairs"`
}

// PairsClient reads DEX pair listings from the public pair-listing API.
// No credential required.
type PairsClient struct {
	cfg  config.ProviderConfig
	res  *resilience.Context
	http *fetch.Client
}

// NewPairsClient builds the pair-listing adapter.
func NewPairsClient(cfg config.ProviderConfig, res *resilience.Context, httpOpts fetch.Options) *PairsClient {
	httpOpts.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	res.Limiter.Configure(pairsName, cfg.RPS, cfg.Burst)
	return &PairsClient{cfg: cfg, res: res, http: fetch.NewClient(httpOpts)}
}

// TokenPairs fetches every listed pair for mint.
func (c *PairsClient) TokenPairs(ctx context.Context, mint string) Result[PairListing] {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", strings.TrimRight(c.cfg.BaseURL, "/"), mint)

	return invoke(ctx, call[PairListing]{
		res:      c.res,
		http:     c.http,
		provider: pairsName,
		method:   "token_pairs",
		params:   map[string]string{"mint": mint},
		url:      url,
		ttl:      time.Duration(c.cfg.TTLSecs) * time.Second,
		validate: rejectEmbeddedError,
		decode:   decodePairListing,
	})
}

func decodePairListing(data any) (PairListing, error) {
	if _, ok := data.(map[string]any); !ok {
		return PairListing{}, errors.New("pair payload is not an object")
	}

	var listing PairListing
	for _, raw := range Items(Field(data, "pairs")) {
		addr := Str(Field(raw, "pairAddress"))
		if addr == "" {
			continue
		}
		listing.Pairs = append(listing.Pairs, Pair{
			Address:      addr,
			Dex:          Str(Field(raw, "dexId")),
			PriceUsd:     Num(Field(raw, "priceUsd")),
			LiquidityUsd: Num(Field(raw, "liquidity", "usd")),
			Volume24hUsd: Num(Field(raw, "volume", "h24")),
		})
	}
	return listing, nil
}
