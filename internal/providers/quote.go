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

const quoteName = "quote"

// wrappedSolMint is the quote-side mint used to probe sell routes.
const wrappedSolMint = "So11111111111111111111111111111111111111112"

// probeSellAmount is the raw token amount quoted when probing sellability.
const probeSellAmount = 1_000_000

// SwapQuote is the normalized answer from the swap-quote router for a probe
// sell of the token.
type SwapQuote struct {
	OutAmount      *float64 `json:"out_amount"`
	PriceImpactPct *float64 `json:"price_impact_pct"`
	SellTaxBps     *float64 `json:"sell_tax_bps"`
}

// QuoteClient probes the swap router for a sell quote, which surfaces
// transfer taxes and routes that silently fail. No credential required.
type QuoteClient struct {
	cfg  config.ProviderConfig
	res  *resilience.Context
	http *fetch.Client
}

// NewQuoteClient builds the swap-quote adapter.
func NewQuoteClient(cfg config.ProviderConfig, res *resilience.Context, httpOpts fetch.Options) *QuoteClient {
	httpOpts.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	res.Limiter.Configure(quoteName, cfg.RPS, cfg.Burst)
	return &QuoteClient{cfg: cfg, res: res, http: fetch.NewClient(httpOpts)}
}

// SellQuote fetches a probe sell quote for mint against wrapped SOL.
func (c *QuoteClient) SellQuote(ctx context.Context, mint string) Result[SwapQuote] {
	url := fmt.Sprintf("%s/v6/quote?inputMint=%s&outputMint=%s&amount=%d",
		strings.TrimRight(c.cfg.BaseURL, "/"), mint, wrappedSolMint, probeSellAmount)

	return invoke(ctx, call[SwapQuote]{
		res:      c.res,
		http:     c.http,
		provider: quoteName,
		method:   "sell_quote",
		params:   map[string]string{"inputMint": mint, "outputMint": wrappedSolMint},
		url:      url,
		ttl:      time.Duration(c.cfg.TTLSecs) * time.Second,
		validate: validateQuoteEnvelope,
		decode:   decodeSwapQuote,
	})
}

// validateQuoteEnvelope rejects router error envelopes that arrive with
// HTTP 200, e.g. "TOKEN_NOT_TRADABLE".
func validateQuoteEnvelope(data any) error {
	if code := Str(Field(data, "errorCode")); code != "" {
		return fmt.Errorf("upstream error: %s", code)
	}
	return rejectEmbeddedError(data)
}

func decodeSwapQuote(data any) (SwapQuote, error) {
	obj, ok := data.(map[string]any)
	if !ok {
		return SwapQuote{}, errors.New("quote payload is not an object")
	}

	quote := SwapQuote{
		OutAmount:      Num(obj["outAmount"]),
		PriceImpactPct: Num(obj["priceImpactPct"]),
	}
	if tax := Num(Field(obj, "taxInfo", "sellTaxBps")); tax != nil {
		quote.SellTaxBps = tax
	} else {
		quote.SellTaxBps = Num(obj["sellTaxBps"])
	}
	return quote, nil
}
