// Package trade places buy orders through the PumpPortal trade API and
// builds the pages a sniped token is opened on.
package trade

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/tidwall/gjson"

	"devscope/internal/models"
)

const (
	DefaultTradeURL = "https://pumpportal.fun/api/trade"

	priorityFeeMev     = 0.00005
	priorityFeeDefault = 0.00001
	defaultSlippage    = 10
)

// ErrNoSignature is returned when the API accepts an order without
// returning a signature.
var ErrNoSignature = errors.New("trade response has no signature")

// ErrNoRPC is returned by Confirm when no RPC endpoint is configured.
var ErrNoRPC = errors.New("rpc endpoint not configured")

// Client is a PumpPortal trade API client.
type Client struct {
	apiKey     string
	tradeURL   string
	httpClient *http.Client
	rpcClient  *rpc.Client
}

// NewClient creates a trade client. rpcEndpoint may be empty, in which case
// Confirm is unavailable.
func NewClient(apiKey, tradeURL, rpcEndpoint string) *Client {
	if tradeURL == "" {
		tradeURL = DefaultTradeURL
	}
	c := &Client{
		apiKey:   apiKey,
		tradeURL: tradeURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				IdleConnTimeout:       10 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
	if rpcEndpoint != "" {
		c.rpcClient = rpc.New(rpcEndpoint)
	}
	return c
}

// Order is the body of a PumpPortal trade request.
type Order struct {
	Action           string  `json:"action"`
	Mint             string  `json:"mint"`
	Amount           float64 `json:"amount"`
	DenominatedInSol string  `json:"denominatedInSol"`
	Slippage         float64 `json:"slippage"`
	PriorityFee      float64 `json:"priorityFee"`
	Pool             string  `json:"pool"`
	SkipPreflight    string  `json:"skipPreflight"`
	JitoOnly         string  `json:"jitoOnly"`
}

// BuyOrder builds the order for a buy with the given parameters.
func BuyOrder(mint string, cfg models.SnipeConfig) Order {
	slippage := cfg.Fees
	if slippage == 0 {
		slippage = defaultSlippage
	}
	fee := priorityFeeDefault
	if cfg.MevProtection {
		fee = priorityFeeMev
	}
	return Order{
		Action:           "buy",
		Mint:             mint,
		Amount:           cfg.Amount,
		DenominatedInSol: "true",
		Slippage:         slippage,
		PriorityFee:      fee,
		Pool:             "auto",
		SkipPreflight:    "true",
		JitoOnly:         "true",
	}
}

// Execute submits a buy and returns its signature.
func (c *Client) Execute(ctx context.Context, mint string, cfg models.SnipeConfig) (string, error) {
	body, err := json.Marshal(BuyOrder(mint, cfg))
	if err != nil {
		return "", fmt.Errorf("failed to encode order: %w", err)
	}

	u, err := url.Parse(c.tradeURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("api-key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if msg := apiError(raw); msg != "" {
		return "", fmt.Errorf("trade API error: %s", msg)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("trade API request failed with status code: %d", resp.StatusCode)
	}

	sig := gjson.GetBytes(raw, "signature").String()
	if sig == "" {
		return "", ErrNoSignature
	}
	return sig, nil
}

func apiError(raw []byte) string {
	if e := gjson.GetBytes(raw, "error"); e.Exists() && e.String() != "" {
		return e.String()
	}
	if errs := gjson.GetBytes(raw, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		return errs.Array()[0].String()
	}
	return ""
}

// Confirm reports the confirmation status of a signature: pending,
// processed, confirmed or finalized.
func (c *Client) Confirm(ctx context.Context, signature string) (string, error) {
	if c.rpcClient == nil {
		return "", ErrNoRPC
	}

	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return "", fmt.Errorf("invalid signature format: %w", err)
	}

	res, err := c.rpcClient.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return "", fmt.Errorf("failed to get signature status: %w", err)
	}
	if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
		return "pending", nil
	}

	status := res.Value[0]
	if status.Err != nil {
		errJSON, _ := json.Marshal(status.Err)
		return "error", fmt.Errorf("transaction failed: %s", string(errJSON))
	}
	return string(status.ConfirmationStatus), nil
}
