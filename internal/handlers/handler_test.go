package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devscope/internal/admins"
	"devscope/internal/bot"
	"devscope/internal/detected"
	"devscope/internal/ledger"
	"devscope/internal/models"
	"devscope/internal/store"
	"devscope/pkg/broadcast"
	"devscope/pkg/browser"
	"devscope/pkg/solana"
	"devscope/pkg/trade"
)

type fakeFeeds struct {
	started, stopped int
}

func (f *fakeFeeds) Start(context.Context) { f.started++ }
func (f *fakeFeeds) Stop() { f.stopped++ }
func (f *fakeFeeds) Statuses() map[string]string { return map[string]string{"pumpfun": "connected"} }

type fakeSession struct {
	initialized bool
	active      bool
	page        models.RosterPage
}

func (s *fakeSession) Init(context.Context) error { s.initialized = true; return nil }
func (s *fakeSession) Initialized() bool { return s.initialized }
func (s *fakeSession) IsSessionActive(context.Context) bool { return s.active }
func (s *fakeSession) State() browser.State { return browser.StateReady }
func (s *fakeSession) OpenLogin(context.Context) error { return nil }
func (s *fakeSession) Logout(context.Context) (bool, error) { return false, browser.ErrNotInitialized }
func (s *fakeSession) CheckSession(context.Context) browser.Status {
	return browser.Status{Initialized: true, LoggedIn: s.active, State: browser.StateReady}
}
func (s *fakeSession) FetchModeratorRoster(context.Context, string) (models.RosterPage, error) {
	return s.page, nil
}

type fakePairs struct {
	pair *trade.Pair
}

func (p fakePairs) PairFor(context.Context, string) (*trade.Pair, error) { return p.pair, nil }

type okTrader struct{}

func (okTrader) Execute(context.Context, string, models.SnipeConfig) (string, error) {
	return "sig-1", nil
}

type harness struct {
	h       *Handler
	router  *gin.Engine
	feeds   *fakeFeeds
	session *fakeSession
}

func newHarness(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	state := bot.NewState()
	hub := broadcast.NewHub(nil)
	t.Cleanup(hub.Close)

	d := bot.NewDispatcher(bot.Deps{
		State:     state,
		Directory: admins.NewDirectory(st),
		Ledger:    ledger.New(st),
		Cache:     detected.NewCache(100),
		Publisher: hub,
		Trader:    okTrader{},
	})

	feeds := &fakeFeeds{}
	session := &fakeSession{}
	h := New(context.Background(), Handler{
		State:      state,
		Dispatcher: d,
		Hub:        hub,
		Feeds:      feeds,
		Session:    session,
		Pairs:      fakePairs{},
		Store:      st,
	})

	r := gin.New()
	api := r.Group("/api")
	api.GET("/status", h.Status)
	api.POST("/start", h.Start)
	api.POST("/stop", h.Stop)
	api.POST("/settings", h.UpdateSettings)
	api.POST("/filter-settings", h.UpdateFilterSettings)
	api.POST("/global-snipe-settings", h.UpdateGlobalSnipe)
	api.GET("/lists/:listType", h.GetList)
	api.POST("/lists/:listType", h.AddToList)
	api.DELETE("/lists/:listType/:id", h.RemoveFromList)
	api.DELETE("/firebase/admin-lists/:listType", h.ClearStoredList)
	api.GET("/firebase/used-communities", h.ListUsedCommunities)
	api.GET("/test-firebase", h.TestStore)
	api.GET("/detected-tokens", h.ListDetected)
	api.POST("/detected-tokens/:tokenAddress/snipe", h.SnipeDetected)
	api.GET("/pair-address/:tokenAddress", h.PairAddress)
	api.GET("/demo/templates", h.DemoTemplates)
	api.POST("/demo/inject-token", h.InjectDemoToken)
	api.POST("/demo/inject-from-list", h.InjectDemoFromList)
	api.GET("/twitter-scraper-status", h.ScraperStatus)
	api.POST("/twitter-logout", h.Logout)
	api.POST("/scrape-community/:communityId", h.ScrapeCommunity)

	return &harness{h: h, router: r, feeds: feeds, session: session}
}

func (hs *harness) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	hs.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestLifecycle(t *testing.T) {
	hs := newHarness(t)

	code, out := hs.do(t, http.MethodPost, "/api/start", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Private key not set", out["error"])

	code, out = hs.do(t, http.MethodPost, "/api/settings", gin.H{"privateKey": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid private key", out["error"])

	key := solana.EncodePrivateKey(types.NewAccount())
	code, out = hs.do(t, http.MethodPost, "/api/settings", gin.H{"privateKey": key, "tokenPageDestination": "axiom"})
	require.Equal(t, http.StatusOK, code)
	settings := out["settings"].(map[string]interface{})
	assert.Equal(t, "********", settings["privateKey"])
	assert.Equal(t, "axiom", settings["tokenPageDestination"])

	code, _ = hs.do(t, http.MethodPost, "/api/start", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, hs.feeds.started)

	code, out = hs.do(t, http.MethodPost, "/api/start", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Bot is already running", out["error"])

	code, out = hs.do(t, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["isRunning"])

	code, _ = hs.do(t, http.MethodPost, "/api/stop", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, hs.feeds.stopped)
	assert.False(t, hs.h.State.Running())
}

func TestFilterSettings(t *testing.T) {
	hs := newHarness(t)

	code, out := hs.do(t, http.MethodPost, "/api/filter-settings", gin.H{
		"snipeAllTokens":    true,
		"detectionOnlyMode": false,
	})
	require.Equal(t, http.StatusOK, code)

	settings := out["settings"].(map[string]interface{})
	assert.Equal(t, true, settings["snipeAllTokens"])
	assert.Equal(t, true, settings["enableAdminFilter"])
	assert.Equal(t, "Will detect and snipe ALL new tokens (all other filters bypassed)", out["explanation"])
	assert.Len(t, out["warnings"], 3)

	code, out = hs.do(t, http.MethodPost, "/api/global-snipe-settings", gin.H{"amount": 0.5})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.5, out["globalSnipeSettings"].(map[string]interface{})["amount"])
}

func TestLists(t *testing.T) {
	hs := newHarness(t)

	code, out := hs.do(t, http.MethodPost, "/api/lists/primary_admins", gin.H{"amount": 1, "fees": 10})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Address or username required", out["error"])

	code, out = hs.do(t, http.MethodPost, "/api/lists/primary_admins", gin.H{"address": "alice"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Amount and fees required", out["error"])

	code, _ = hs.do(t, http.MethodPost, "/api/lists/tertiary", gin.H{"address": "alice", "amount": 1, "fees": 10})
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = hs.do(t, http.MethodPost, "/api/lists/primary_admins", gin.H{"address": " alice ", "amount": 0.1, "fees": 15})
	require.Equal(t, http.StatusOK, code)
	entry := out["config"].(map[string]interface{})
	assert.Equal(t, "alice", entry["address"])
	id := entry["id"].(string)

	code, out = hs.do(t, http.MethodGet, "/api/lists/primary_admins", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), out["count"])

	code, out = hs.do(t, http.MethodDelete, "/api/lists/primary_admins/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Entry not found", out["error"])

	code, _ = hs.do(t, http.MethodDelete, "/api/lists/primary_admins/"+id, nil)
	assert.Equal(t, http.StatusOK, code)

	hs.do(t, http.MethodPost, "/api/lists/secondary_admins", gin.H{"address": "bob", "amount": 0.1, "fees": 15})
	code, out = hs.do(t, http.MethodDelete, "/api/firebase/admin-lists/secondary_admins", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), out["clearedCount"])
}

func TestSnipeDetected(t *testing.T) {
	hs := newHarness(t)
	cache := hs.h.Dispatcher.Cache

	code, out := hs.do(t, http.MethodPost, "/api/detected-tokens/M1/snipe", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Token not found in detected list", out["error"])

	cache.Put(models.DetectedResult{TokenAddress: "M1", MatchType: models.MatchSnipeAll})
	code, out = hs.do(t, http.MethodPost, "/api/detected-tokens/M1/snipe", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No snipe configuration available for this token", out["error"])

	cache.Put(models.DetectedResult{
		TokenAddress: "M2",
		MatchType:    models.MatchSecondaryAdmin,
		Config:       &models.AdminEntry{Address: "bob", Amount: 0.2, Fees: 10},
	})
	code, out = hs.do(t, http.MethodPost, "/api/detected-tokens/M2/snipe", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sig-1", out["result"].(map[string]interface{})["signature"])

	code, out = hs.do(t, http.MethodGet, "/api/detected-tokens", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["tokens"], 2)
}

func TestPairAddress(t *testing.T) {
	hs := newHarness(t)

	code, out := hs.do(t, http.MethodGet, "/api/pair-address/MINT", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "https://axiom.trade/meme/MINT", out["fallbackAxiomUrl"])

	hs.h.Pairs = fakePairs{pair: &trade.Pair{PairAddress: "PAIR", DexID: "raydium", URL: "https://dexscreener.com/solana/pair"}}
	code, out = hs.do(t, http.MethodGet, "/api/pair-address/MINT", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "https://axiom.trade/meme/PAIR", out["axiomUrl"])
	assert.Equal(t, "https://dexscreener.com/solana/pair", out["dexScreenerUrl"])
}

func TestDemo(t *testing.T) {
	hs := newHarness(t)

	code, out := hs.do(t, http.MethodGet, "/api/demo/templates", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["templates"], len(bot.DemoTemplates))
	assert.Len(t, out["wallets"], len(bot.DemoWallets))

	code, out = hs.do(t, http.MethodPost, "/api/demo/inject-token", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Bot must be running to inject demo tokens", out["error"])

	hs.h.State.SetPrivateKey(solana.EncodePrivateKey(types.NewAccount()))
	require.NoError(t, hs.h.State.Start())

	hs.do(t, http.MethodPost, "/api/lists/primary_admins", gin.H{"address": "demodev", "amount": 0.1, "fees": 10})
	code, out = hs.do(t, http.MethodPost, "/api/demo/inject-from-list", gin.H{"listType": "primary_admins"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "demodev", out["usedEntry"].(map[string]interface{})["address"])

	hs.h.Dispatcher.Wait()
	require.Eventually(t, func() bool {
		return hs.h.Dispatcher.Cache.Len() == 1
	}, time.Second, 10*time.Millisecond)
	got := hs.h.Dispatcher.Cache.List()[0]
	assert.Equal(t, models.MatchPrimaryAdmin, got.MatchType)
}

func TestBrowserEndpoints(t *testing.T) {
	hs := newHarness(t)

	code, out := hs.do(t, http.MethodGet, "/api/twitter-scraper-status", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["initialized"])

	code, out = hs.do(t, http.MethodPost, "/api/twitter-logout", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, out["success"])

	code, _ = hs.do(t, http.MethodPost, "/api/scrape-community/777", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.True(t, hs.session.initialized)

	hs.session.active = true
	hs.session.page = models.RosterPage{Text: "BossDev\nAdmin"}
	code, out = hs.do(t, http.MethodPost, "/api/scrape-community/777", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), out["totalAdmins"])
}

func TestTestStore(t *testing.T) {
	hs := newHarness(t)

	code, out := hs.do(t, http.MethodGet, "/api/test-firebase", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])

	docs, err := hs.h.Store.Query(context.Background(), store.CollectionTest, store.OrderCreatedAsc)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	code, out = hs.do(t, http.MethodGet, "/api/firebase/used-communities", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, out, "communities")
}
