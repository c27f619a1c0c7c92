package trade

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	DefaultDexScreenerURL = "https://api.dexscreener.com/latest/dex/tokens/"

	neoBullxURL = "https://neo.bullx.io/terminal?chainId=1399811149&address="
	axiomURL    = "https://axiom.trade/meme/"

	userAgent = "DevScope-Bot/1.0"
)

// Pair is a trading pair listed by DexScreener.
type Pair struct {
	PairAddress string      `json:"pairAddress"`
	DexID       string      `json:"dexId"`
	BaseToken   interface{} `json:"baseToken,omitempty"`
	QuoteToken  interface{} `json:"quoteToken,omitempty"`
	Liquidity   interface{} `json:"liquidity,omitempty"`
	URL         string      `json:"url"`
}

// DexScreener looks up pairs for a token.
type DexScreener struct {
	baseURL string
	client  *retryablehttp.Client
}

// NewDexScreener creates a lookup client. An empty baseURL uses the public
// API.
func NewDexScreener(baseURL string) *DexScreener {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = nil

	return &DexScreener{baseURL: baseURL, client: client}
}

// PairFor returns the Raydium pair of a token when one exists, else its
// first pair. It returns nil when the token has no pairs.
func (d *DexScreener) PairFor(ctx context.Context, mint string) (*Pair, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+mint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DexScreener request failed with status code: %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	pairs := gjson.GetBytes(raw, "pairs").Array()
	if len(pairs) == 0 {
		return nil, nil
	}

	best := pairs[0]
	for _, p := range pairs {
		if strings.Contains(strings.ToLower(p.Get("dexId").String()), "raydium") {
			best = p
			break
		}
	}

	return &Pair{
		PairAddress: best.Get("pairAddress").String(),
		DexID:       best.Get("dexId").String(),
		BaseToken:   best.Get("baseToken").Value(),
		QuoteToken:  best.Get("quoteToken").Value(),
		Liquidity:   best.Get("liquidity").Value(),
		URL:         best.Get("url").String(),
	}, nil
}

// AxiomURL returns the Axiom page of a pair, or of the token itself.
func AxiomURL(addr string) string {
	return axiomURL + addr
}

// TokenPageURL builds the page a sniped token is opened on. Axiom pages
// prefer the pair address and fall back to the mint.
func (d *DexScreener) TokenPageURL(ctx context.Context, mint, destination string) string {
	if destination != "axiom" {
		return neoBullxURL + mint
	}

	pair, err := d.PairFor(ctx, mint)
	if err != nil {
		log.WithFields(log.Fields{
			"token_address": mint,
			"error":         err.Error(),
		}).Warn("Pair lookup failed, linking to token")
	}
	if pair != nil && pair.PairAddress != "" {
		return AxiomURL(pair.PairAddress)
	}
	return AxiomURL(mint)
}
