// Package handlers serves the control API of the sniper.
package handlers

import (
	"context"
	"time"

	"devscope/internal/bot"
	"devscope/internal/models"
	"devscope/internal/store"
	"devscope/pkg/broadcast"
	"devscope/pkg/browser"
	"devscope/pkg/trade"
)

// Feeds controls the upstream token feeds.
type Feeds interface {
	Start(ctx context.Context)
	Stop()
	Statuses() map[string]string
}

// Session is the browser session used for community rosters.
type Session interface {
	Init(ctx context.Context) error
	Initialized() bool
	IsSessionActive(ctx context.Context) bool
	State() browser.State
	CheckSession(ctx context.Context) browser.Status
	OpenLogin(ctx context.Context) error
	Logout(ctx context.Context) (bool, error)
	FetchModeratorRoster(ctx context.Context, communityID string) (models.RosterPage, error)
}

// PairFinder looks up the trading pair of a token.
type PairFinder interface {
	PairFor(ctx context.Context, mint string) (*trade.Pair, error)
}

// Handler holds the collaborators shared by every endpoint.
type Handler struct {
	State      *bot.State
	Dispatcher *bot.Dispatcher
	Hub        *broadcast.Hub
	Feeds      Feeds
	Session    Session
	Pairs      PairFinder
	Store      store.Store

	// RPCEndpoints are probed by the RPC health endpoint.
	RPCEndpoints []string

	// ctx outlives requests; feeds started from the API run under it.
	ctx context.Context
	now func() time.Time
}

func New(ctx context.Context, h Handler) *Handler {
	h.ctx = ctx
	h.now = time.Now
	return &h
}

func (h *Handler) publish(typ string, data map[string]interface{}) {
	if h.Hub == nil {
		return
	}
	data["timestamp"] = h.timestamp()
	h.Hub.Publish(broadcast.Event{Type: typ, Data: data})
}

func (h *Handler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}

func (h *Handler) stats() map[string]interface{} {
	d := h.Dispatcher
	st := d.Directory.Stats()
	return map[string]interface{}{
		"primaryAdmins":    st.PrimaryAdmins,
		"secondaryAdmins":  st.SecondaryAdmins,
		"usedCommunities":  d.Ledger.Known(),
		"processedTokens":  d.Processed(),
		"detectedTokens":   d.Cache.Len(),
		"isFirebaseLoaded": st.Loaded,
	}
}
