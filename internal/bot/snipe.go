package bot

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"devscope/internal/models"
	"devscope/pkg/trade"
)

// ErrNoTrader is returned when no trade executor is configured.
var ErrNoTrader = errors.New("trade execution not configured")

// SnipeResult is the outcome of a buy attempt.
type SnipeResult struct {
	Success      bool   `json:"success"`
	Signature    string `json:"signature,omitempty"`
	TokenPageURL string `json:"tokenPageUrl,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Snipe buys a token and broadcasts snipe_success or snipe_error. Failures
// do not change the dedup state of the token.
func (d *Dispatcher) Snipe(ctx context.Context, mint string, cfg models.SnipeConfig) SnipeResult {
	logger := log.WithFields(log.Fields{
		"token_address":  mint,
		"amount":         cfg.Amount,
		"fees":           cfg.Fees,
		"mev_protection": cfg.MevProtection,
	})

	var (
		signature string
		err       = ErrNoTrader
	)
	if d.Trader != nil {
		signature, err = d.Trader.Execute(ctx, mint, cfg)
	}
	if err != nil {
		logger.WithField("error", err.Error()).Error("Snipe failed")
		d.publish("snipe_error", map[string]interface{}{
			"tokenAddress": mint,
			"error":        err.Error(),
			"timestamp":    d.now().UTC().Format(time.RFC3339),
		})
		return SnipeResult{Error: err.Error()}
	}

	pageURL := ""
	if d.Links != nil {
		pageURL = d.Links.TokenPageURL(ctx, mint, d.State.Settings().TokenPageDestination)
	}

	if c, ok := d.Trader.(Confirmer); ok {
		d.watchConfirmation(mint, signature, c)
	}

	logger.WithField("signature", signature).Info("Snipe submitted")
	d.publish("snipe_success", map[string]interface{}{
		"tokenAddress":  mint,
		"signature":     signature,
		"amount":        cfg.Amount,
		"tokenPageUrl":  pageURL,
		"timestamp":     d.now().UTC().Format(time.RFC3339),
		"openTokenPage": true,
	})
	return SnipeResult{Success: true, Signature: signature, TokenPageURL: pageURL}
}

// SnipeDetected re-snipes a cached token with the entry that matched it.
func (d *Dispatcher) SnipeDetected(ctx context.Context, mint string) (SnipeResult, error) {
	r, ok := d.Cache.Get(mint)
	if !ok {
		return SnipeResult{}, ErrTokenNotDetected
	}
	if r.Config == nil {
		return SnipeResult{}, ErrNoSnipeConfig
	}
	return d.Snipe(ctx, mint, r.Config.SnipeConfig()), nil
}

var (
	// ErrTokenNotDetected is returned for a token missing from the cache.
	ErrTokenNotDetected = errors.New("token not found in detected list")

	// ErrNoSnipeConfig is returned for a cached token without an entry.
	ErrNoSnipeConfig = errors.New("no snipe configuration available for this token")
)

// Confirmer reports the on-chain status of a submitted signature. Executors
// that implement it get their buys tracked until confirmation.
type Confirmer interface {
	Confirm(ctx context.Context, signature string) (status string, err error)
}

const (
	defaultConfirmInterval = 2 * time.Second
	defaultConfirmAttempts = 30
)

// watchConfirmation polls the signature status in the background and
// broadcasts snipe_confirmation once it is confirmed, failed or timed out.
func (d *Dispatcher) watchConfirmation(mint, signature string, c Confirmer) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		logger := log.WithFields(log.Fields{
			"token_address": mint,
			"signature":     signature,
		})

		report := func(status, errMsg string) {
			data := map[string]interface{}{
				"tokenAddress": mint,
				"signature":    signature,
				"status":       status,
				"timestamp":    d.now().UTC().Format(time.RFC3339),
			}
			if errMsg != "" {
				data["error"] = errMsg
			}
			d.publish("snipe_confirmation", data)
		}

		for i := 0; i < d.confirmAttempts; i++ {
			if i > 0 {
				time.Sleep(d.confirmInterval)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			status, err := c.Confirm(ctx, signature)
			cancel()

			switch {
			case errors.Is(err, trade.ErrNoRPC):
				return
			case status == "error":
				msg := "transaction failed"
				if err != nil {
					msg = err.Error()
				}
				logger.WithField("error", msg).Warn("Snipe transaction failed on chain")
				report("failed", msg)
				return
			case err != nil:
				logger.WithField("error", err.Error()).Debug("Signature status check failed")
			case status == "confirmed" || status == "finalized":
				logger.WithField("status", status).Info("Snipe confirmed")
				report(status, "")
				return
			}
		}

		logger.Warn("Snipe not confirmed in time")
		report("timeout", "")
	}()
}
