package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"devscope/internal/admins"
	"devscope/internal/detected"
	"devscope/internal/identity"
	"devscope/internal/ledger"
	"devscope/internal/models"
	"devscope/internal/resolver"
	"devscope/pkg/broadcast"
	"devscope/pkg/curve"
	"devscope/pkg/solana"
)

// Executor places buy orders.
type Executor interface {
	Execute(ctx context.Context, mint string, cfg models.SnipeConfig) (signature string, err error)
}

// Linker builds the page a sniped token is opened on.
type Linker interface {
	TokenPageURL(ctx context.Context, mint, destination string) string
}

// MetadataFetcher loads off-chain token metadata. It returns an empty JSON
// object on any failure.
type MetadataFetcher interface {
	Fetch(ctx context.Context, uri string) []byte
}

// CommunityResolver resolves a community id to an allowlist match.
type CommunityResolver interface {
	Resolve(ctx context.Context, communityID string) resolver.Outcome
}

// Deps are the collaborators of a Dispatcher. Trader, Links, Metadata and
// Resolver may be nil.
type Deps struct {
	State     *State
	Directory *admins.Directory
	Ledger    *ledger.Ledger
	Cache     *detected.Cache
	Publisher broadcast.Publisher
	Resolver  CommunityResolver
	Trader    Executor
	Links     Linker
	Metadata  MetadataFetcher
}

type action int

const (
	actionNone action = iota
	actionTrade
	actionNotify
)

// decision is the single terminal outcome of one token.
type decision struct {
	result        models.DetectedResult
	action        action
	snipe         models.SnipeConfig
	markCommunity bool
}

// Dispatcher classifies token events. Each token is processed at most once
// per process.
type Dispatcher struct {
	Deps

	mu        sync.Mutex
	processed map[string]struct{}

	wg  sync.WaitGroup
	seq int64
	now func() time.Time

	confirmInterval time.Duration
	confirmAttempts int
}

// NewDispatcher wires a dispatcher.
func NewDispatcher(deps Deps) *Dispatcher {
	return &Dispatcher{
		Deps:      deps,
		processed: make(map[string]struct{}),
		now:       time.Now,

		confirmInterval: defaultConfirmInterval,
		confirmAttempts: defaultConfirmAttempts,
	}
}

// HandleToken passes the dedup gate synchronously and classifies the token
// on its own goroutine. It reports whether the token was accepted.
func (d *Dispatcher) HandleToken(ev models.TokenEvent, platform string) bool {
	if ev.Mint == "" {
		return false
	}

	d.mu.Lock()
	if _, seen := d.processed[ev.Mint]; seen {
		d.mu.Unlock()
		return false
	}
	d.processed[ev.Mint] = struct{}{}
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"token_address": ev.Mint,
					"panic":         fmt.Sprint(r),
					"stack":         string(debug.Stack()),
				}).Error("Token processing panicked")
			}
		}()
		d.process(context.Background(), ev, platform)
	}()
	return true
}

// Wait blocks until every accepted token has been processed and every
// confirmation watch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Processed returns the number of distinct tokens accepted.
func (d *Dispatcher) Processed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.processed)
}

func (d *Dispatcher) process(ctx context.Context, ev models.TokenEvent, platform string) {
	logger := log.WithFields(log.Fields{
		"token_address": ev.Mint,
		"platform":      platform,
	})

	var metadata []byte
	if ev.URI != "" && d.Metadata != nil {
		metadata = d.Metadata.Fetch(ctx, ev.URI)
	}

	id := identity.FromToken(ev, metadata)
	base := d.baseResult(ev, platform, metadata, id)

	dec, ok := d.classify(ctx, base, id)
	if !ok {
		logger.WithField("twitter_type", string(id.Kind)).Debug("Token did not match any filter")
		return
	}

	if !d.State.Running() {
		logger.Info("Bot stopped while classifying, discarding result")
		return
	}

	d.commit(ctx, dec, id, logger)
}

// classify applies the filter rules in order. The first applicable rule is
// the outcome. ok is false for an unmatched token.
func (d *Dispatcher) classify(ctx context.Context, base models.DetectedResult, id models.Identity) (decision, bool) {
	filters := d.State.Filters()
	isCommunity := id.Kind == models.IdentityCommunity && id.CommunityID != ""

	if isCommunity && filters.EnableCommunityReuse && d.Ledger.IsUsed(ctx, id.CommunityID) {
		r := base
		r.MatchType = models.MatchCommunityReused
		r.MatchedEntity = fmt.Sprintf("Community %s (Already Used)", id.CommunityID)
		r.DetectionReason = "Community already used - blocked by reuse prevention"
		r.Blocked = true
		r.BlockReason = "Community already used"
		return decision{result: r}, true
	}

	if isCommunity && filters.EnableAdminFilter && d.Resolver != nil {
		out := d.Resolver.Resolve(ctx, id.CommunityID)
		if out.Matched {
			r := base
			r.MatchType = out.MatchType()
			r.MatchedEntity = out.MatchedEntity
			r.DetectionReason = out.Reason
			r.Config = out.Entry
			r.CommunityAdmins = out.Roster
			r.MatchedAdmin = out.MatchedAdmin
			return d.adminDecision(r, out.List, out.Entry, filters, true), true
		}
	}

	if filters.SnipeAllTokens {
		r := base
		r.MatchType = models.MatchSnipeAll
		r.MatchedEntity = "All tokens"
		r.DetectionReason = "Snipe All Mode Enabled"
		dec := decision{result: r, markCommunity: isCommunity}
		if !filters.DetectionOnlyMode {
			dec.action = actionTrade
			dec.snipe = d.State.GlobalSnipe()
		}
		return dec, true
	}

	if filters.EnableAdminFilter {
		if id.Kind == models.IdentityIndividual && id.Handle != "" {
			for _, list := range []admins.ListType{admins.Primary, admins.Secondary} {
				if entry := d.Directory.Lookup(list, id.Handle); entry != nil {
					r := base
					r.MatchType = tierMatch(list)
					r.MatchedEntity = id.Handle
					r.DetectionReason = fmt.Sprintf("%s Admin: @%s", tierTitle(list), id.Handle)
					r.Config = entry
					return d.adminDecision(r, list, entry, filters, false), true
				}
			}
		}

		if wallet := base.CreatorWallet; wallet != "" {
			for _, list := range []admins.ListType{admins.Primary, admins.Secondary} {
				if entry := d.Directory.Lookup(list, wallet); entry != nil {
					r := base
					r.MatchType = tierMatch(list)
					r.MatchedEntity = wallet
					r.DetectionReason = fmt.Sprintf("%s Wallet: %s...", tierTitle(list), shorten(wallet, 8))
					r.Config = entry
					return d.adminDecision(r, list, entry, filters, false), true
				}
			}
		}
		return decision{}, false
	}

	r := base
	r.MatchType = models.MatchNoFilters
	r.MatchedEntity = "No filters active"
	r.DetectionReason = "Admin filtering disabled"
	return decision{result: r, markCommunity: isCommunity}, true
}

func (d *Dispatcher) adminDecision(r models.DetectedResult, list admins.ListType, entry *models.AdminEntry, filters FilterSettings, markCommunity bool) decision {
	dec := decision{result: r, markCommunity: markCommunity}
	switch {
	case list == admins.Secondary:
		dec.action = actionNotify
	case !filters.DetectionOnlyMode:
		dec.action = actionTrade
		dec.snipe = entry.SnipeConfig()
	}
	return dec
}

// commit applies the side effects of a decision: ledger, cache, broadcast
// and the trade or notification.
func (d *Dispatcher) commit(ctx context.Context, dec decision, id models.Identity, logger *log.Entry) {
	r := dec.result
	r.DetectedAt = d.now().UTC()
	r.ID = d.nextID(r.DetectedAt)

	if dec.markCommunity {
		d.Ledger.MarkUsed(ctx, id.CommunityID, ledger.Usage{
			TokenAddress: r.TokenAddress,
			TokenName:    r.Name,
			Platform:     r.Platform,
		})
	}

	if dec.action == actionTrade {
		if q, err := curve.EstimateBuy(dec.snipe.Amount, r.VSolInBondingCurve, r.VTokensInBondingCurve, curve.DefaultFeeRate); err == nil {
			r.BuyEstimate = &q
		}
	}

	d.Cache.Put(r)
	logger.WithFields(log.Fields{
		"match_type":     string(r.MatchType),
		"matched_entity": r.MatchedEntity,
	}).Info("Token detected")

	if r.MatchType == models.MatchSecondaryAdmin {
		now := d.now().UTC().Format(time.RFC3339)
		d.publish("secondary_popup_trigger", map[string]interface{}{
			"tokenData":           r,
			"globalSnipeSettings": d.State.GlobalSnipe(),
			"timestamp":           now,
		})
		sound := ""
		if r.Config != nil {
			sound = r.Config.SoundNotification
		}
		d.publish("secondary_notification", map[string]interface{}{
			"tokenAddress":      r.TokenAddress,
			"soundNotification": sound,
			"timestamp":         now,
		})
	} else {
		d.publish("token_detected", r)
	}

	if dec.action == actionTrade {
		d.Snipe(ctx, r.TokenAddress, dec.snipe)
	}
}

func (d *Dispatcher) publish(eventType string, data interface{}) {
	if d.Publisher != nil {
		d.Publisher.Publish(broadcast.Event{Type: eventType, Data: data})
	}
}

func (d *Dispatcher) nextID(at time.Time) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := at.UnixMilli()
	if id <= d.seq {
		id = d.seq + 1
	}
	d.seq = id
	return strconv.FormatInt(id, 10)
}

// baseResult copies the token fields, preferring fetched metadata for the
// display fields.
func (d *Dispatcher) baseResult(ev models.TokenEvent, platform string, metadata []byte, id models.Identity) models.DetectedResult {
	meta := func(path string) string {
		if len(metadata) == 0 {
			return ""
		}
		return gjson.GetBytes(metadata, path).String()
	}
	first := func(vals ...string) string {
		for _, v := range vals {
			if v != "" {
				return v
			}
		}
		return ""
	}

	pool := ev.Pool
	if pool == "" {
		pool = "bonk"
		if platform == "pumpfun" {
			pool = "pump"
		}
	}

	curveKey := ev.BondingCurveKey
	if curveKey == "" && platform == "pumpfun" {
		if addr, err := solana.BondingCurveAddress(ev.Mint); err == nil {
			curveKey = addr
		}
	}

	return models.DetectedResult{
		TokenAddress:          ev.Mint,
		Platform:              platform,
		CreatorWallet:         ev.CreatorWallet(),
		Name:                  first(meta("name"), ev.Name, "Unknown Token"),
		Symbol:                first(meta("symbol"), ev.Symbol, "UNKNOWN"),
		Description:           meta("description"),
		URI:                   first(meta("image"), ev.URI),
		Website:               meta("website"),
		Pool:                  pool,
		Signature:             ev.Signature,
		MarketCapSol:          ev.MarketCapSol,
		SolAmount:             ev.SolAmount,
		InitialBuy:            ev.InitialBuy,
		BondingCurveKey:       curveKey,
		VTokensInBondingCurve: ev.VTokensInBondingCurve,
		VSolInBondingCurve:    ev.VSolInBondingCurve,
		SolInPool:             ev.SolInPool,
		TokensInPool:          ev.TokensInPool,
		NewTokenBalance:       ev.NewTokenBalance,
		PriceSol:              curve.Price(ev.VSolInBondingCurve, ev.VTokensInBondingCurve),
		TwitterType:           id.Kind,
		TwitterCommunityID:    id.CommunityID,
		TwitterHandle:         id.Handle,
		TwitterAdmin:          id.Admin(),
		TwitterURL:            id.SourceText,
	}
}

func tierMatch(list admins.ListType) models.MatchType {
	if list == admins.Secondary {
		return models.MatchSecondaryAdmin
	}
	return models.MatchPrimaryAdmin
}

func tierTitle(list admins.ListType) string {
	if list == admins.Secondary {
		return "Secondary"
	}
	return "Primary"
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
