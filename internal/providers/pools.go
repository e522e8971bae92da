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

const poolsName = "pools"

// Pool is one AMM pool holding the token, with whatever LP lock information
// the registry publishes.
type Pool struct {
	Address       string   `json:"address"`
	Dex           string   `json:"dex"`
	LiquidityUsd  *float64 `json:"liquidity_usd"`
	LpLockSeconds *float64 `json:"lp_lock_seconds"`
	LpBurned      *bool    `json:"lp_burned"`
}

// PoolList is the normalized registry answer for one token.
type PoolList struct {
	Pools []Pool `json:"pools"`
}

// PoolsClient reads AMM pool listings and LP lock status from the pool
// registry. No credential required.
type PoolsClient struct {
	cfg  config.ProviderConfig
	res  *resilience.Context
	http *fetch.Client
}

// NewPoolsClient builds the pool-registry adapter.
func NewPoolsClient(cfg config.ProviderConfig, res *resilience.Context, httpOpts fetch.Options) *PoolsClient {
	httpOpts.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	res.Limiter.Configure(poolsName, cfg.RPS, cfg.Burst)
	return &PoolsClient{cfg: cfg, res: res, http: fetch.NewClient(httpOpts)}
}

// PoolsForMint fetches the registry's pools containing mint.
func (c *PoolsClient) PoolsForMint(ctx context.Context, mint string) Result[PoolList] {
	url := fmt.Sprintf("%s/v2/pools?mint=%s", strings.TrimRight(c.cfg.BaseURL, "/"), mint)

	return invoke(ctx, call[PoolList]{
		res:      c.res,
		http:     c.http,
		provider: poolsName,
		method:   "pools_for_mint",
		params:   map[string]string{"mint": mint},
		url:      url,
		ttl:      time.Duration(c.cfg.TTLSecs) * time.Second,
		validate: rejectEmbeddedError,
		decode:   decodePoolList,
	})
}

func decodePoolList(data any) (PoolList, error) {
	items := Items(Field(data, "data"))
	if items == nil {
		// Some registry deployments return the array at the top level.
		items = Items(data)
	}
	if items == nil {
		return PoolList{}, errors.New("pool payload has no pool array")
	}

	var list PoolList
	for _, raw := range items {
		addr := Str(Field(raw, "id"))
		if addr == "" {
			addr = Str(Field(raw, "address"))
		}
		if addr == "" {
			continue
		}
		pool := Pool{
			Address:       addr,
			Dex:           Str(Field(raw, "source")),
			LiquidityUsd:  Num(Field(raw, "tvl")),
			LpLockSeconds: Num(Field(raw, "lpLockSeconds")),
			LpBurned:      Boolean(Field(raw, "lpBurned")),
		}
		// A burned LP is a permanent lock.
		if pool.LpBurned != nil && *pool.LpBurned && pool.LpLockSeconds == nil {
			permanent := float64(100 * 365 * 24 * 3600)
			pool.LpLockSeconds = &permanent
		}
		list.Pools = append(list.Pools, pool)
	}
	return list, nil
}
