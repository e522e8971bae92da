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

const chainMetaName = "chainmeta"

// AssetMeta is the normalized on-chain metadata for one token.
type AssetMeta struct {
	Symbol                string   `json:"symbol"`
	Name                  string   `json:"name"`
	Decimals              *float64 `json:"decimals"`
	Supply                *float64 `json:"supply"`
	MintActive            *bool    `json:"mint_active"`
	FreezeAuthorityActive *bool    `json:"freeze_authority_active"`
	Top10HolderPct        *float64 `json:"top10_holder_pct"`
}

// ChainMetaClient reads token metadata and holder distribution from the
// RPC-gateway provider. The provider requires an API key; without one every
// call fails closed as degraded, since misconfiguration is not a transient
// fault worth a breaker slot.
type ChainMetaClient struct {
	cfg  config.ProviderConfig
	res  *resilience.Context
	http *fetch.Client
}

// NewChainMetaClient builds the asset-metadata adapter.
func NewChainMetaClient(cfg config.ProviderConfig, res *resilience.Context, httpOpts fetch.Options) *ChainMetaClient {
	httpOpts.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	res.Limiter.Configure(chainMetaName, cfg.RPS, cfg.Burst)
	return &ChainMetaClient{cfg: cfg, res: res, http: fetch.NewClient(httpOpts)}
}

// TokenMetadata fetches metadata and top-holder concentration for mint.
func (c *ChainMetaClient) TokenMetadata(ctx context.Context, mint string) Result[AssetMeta] {
	if !credentialUsable(c.cfg.APIKey) {
		return Degraded[AssetMeta]("chainmeta api key missing or malformed")
	}

	url := fmt.Sprintf("%s/v0/tokens/%s/metadata?api-key=%s", strings.TrimRight(c.cfg.BaseURL, "/"), mint, c.cfg.APIKey)

	return invoke(ctx, call[AssetMeta]{
		res:      c.res,
		http:     c.http,
		provider: chainMetaName,
		method:   "token_metadata",
		params:   map[string]string{"mint": mint},
		url:      url,
		ttl:      time.Duration(c.cfg.TTLSecs) * time.Second,
		validate: rejectEmbeddedError,
		decode:   decodeAssetMeta,
	})
}

func decodeAssetMeta(data any) (AssetMeta, error) {
	obj, ok := data.(map[string]any)
	if !ok {
		return AssetMeta{}, errors.New("metadata payload is not an object")
	}

	meta := AssetMeta{
		Symbol:   Str(Field(obj, "symbol")),
		Name:     Str(Field(obj, "name")),
		Decimals: Num(Field(obj, "decimals")),
		Supply:   Num(Field(obj, "supply")),
	}

	// The upstream reports mint status either as an explicit flag or as a
	// frozen marker; absence of both stays null.
	if active := Boolean(Field(obj, "mintActive")); active != nil {
		meta.MintActive = active
	} else if frozen := Boolean(Field(obj, "frozen")); frozen != nil {
		v := !*frozen
		meta.MintActive = &v
	}
	meta.FreezeAuthorityActive = Boolean(Field(obj, "freezeAuthorityActive"))

	// Top-10 concentration: sum of the largest holder percentages.
	if holders := Items(Field(obj, "topHolders")); holders != nil {
		sum := 0.0
		counted := 0
		for _, h := range holders {
			if counted == 10 {
				break
			}
			if pct := Num(Field(h, "pct")); pct != nil {
				sum += *pct
				counted++
			}
		}
		if counted > 0 {
			meta.Top10HolderPct = &sum
		}
	}

	return meta, nil
}

// credentialUsable reports whether an API key is present and plausibly
// well-formed. Keys with embedded whitespace are treated as misconfigured.
func credentialUsable(key string) bool {
	return key != "" && strings.TrimSpace(key) == key
}

// rejectEmbeddedError fails a 200 response that carries an upstream error
// object instead of data.
func rejectEmbeddedError(data any) error {
	if msg := Str(Field(data, "error")); msg != "" {
		return fmt.Errorf("upstream error: %s", msg)
	}
	if msg := Str(Field(data, "error", "message")); msg != "" {
		return fmt.Errorf("upstream error: %s", msg)
	}
	return nil
}
