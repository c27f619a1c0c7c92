package trade

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devscope/internal/models"
)

func TestBuyOrder(t *testing.T) {
	o := BuyOrder("MINT", models.SnipeConfig{Amount: 0.2, MevProtection: true})
	assert.Equal(t, "buy", o.Action)
	assert.Equal(t, 10.0, o.Slippage)
	assert.Equal(t, priorityFeeMev, o.PriorityFee)
	assert.Equal(t, "auto", o.Pool)
	assert.Equal(t, "true", o.DenominatedInSol)
	assert.Equal(t, "true", o.JitoOnly)

	o = BuyOrder("MINT", models.SnipeConfig{Amount: 1, Fees: 25})
	assert.Equal(t, 25.0, o.Slippage)
	assert.Equal(t, priorityFeeDefault, o.PriorityFee)
}

func TestClient_Execute(t *testing.T) {
	var got Order
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k123", r.URL.Query().Get("api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"signature":"5igSig"}`))
	}))
	defer srv.Close()

	c := NewClient("k123", srv.URL, "")
	sig, err := c.Execute(context.Background(), "MINT", models.SnipeConfig{Amount: 0.1, Fees: 15})
	require.NoError(t, err)
	assert.Equal(t, "5igSig", sig)
	assert.Equal(t, "MINT", got.Mint)
	assert.Equal(t, 15.0, got.Slippage)
}

func TestClient_ExecuteErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"error field":  {http.StatusOK, `{"error":"insufficient balance"}`, "insufficient balance"},
		"errors array": {http.StatusBadRequest, `{"errors":["bad mint"]}`, "bad mint"},
		"status only":  {http.StatusInternalServerError, `oops`, "status code: 500"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient("k", srv.URL, "").Execute(context.Background(), "M", models.SnipeConfig{Amount: 1})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	_, err := NewClient("k", srv.URL, "").Execute(context.Background(), "M", models.SnipeConfig{Amount: 1})
	assert.ErrorIs(t, err, ErrNoSignature)
}

func TestDexScreener_PrefersRaydium(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/MINT", r.URL.Path)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"pairs":[
			{"dexId":"pumpswap","pairAddress":"P1","url":"https://dexscreener.com/solana/p1"},
			{"dexId":"raydium-cpmm","pairAddress":"P2","url":"https://dexscreener.com/solana/p2","liquidity":{"usd":1000}}
		]}`))
	}))
	defer srv.Close()

	d := NewDexScreener(srv.URL + "/tokens/")
	pair, err := d.PairFor(context.Background(), "MINT")
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, "P2", pair.PairAddress)
	assert.Equal(t, "raydium-cpmm", pair.DexID)

	assert.Equal(t, "https://axiom.trade/meme/P2", d.TokenPageURL(context.Background(), "MINT", "axiom"))
	assert.Equal(t, "https://neo.bullx.io/terminal?chainId=1399811149&address=MINT", d.TokenPageURL(context.Background(), "MINT", "neo_bullx"))
}

func TestDexScreener_NoPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":null}`))
	}))
	defer srv.Close()

	d := NewDexScreener(srv.URL + "/")
	pair, err := d.PairFor(context.Background(), "MINT")
	require.NoError(t, err)
	assert.Nil(t, pair)
	assert.Equal(t, "https://axiom.trade/meme/MINT", d.TokenPageURL(context.Background(), "MINT", "axiom"))
}

func rpcServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getSignatureStatuses", req.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[` + result + `]}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Confirm(t *testing.T) {
	sig := solana.Signature{1, 2, 3}.String()

	srv := rpcServer(t, `{"slot":1,"confirmations":null,"err":null,"confirmationStatus":"confirmed"}`)
	status, err := NewClient("k", "", srv.URL).Confirm(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", status)

	srv = rpcServer(t, `null`)
	status, err = NewClient("k", "", srv.URL).Confirm(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, "pending", status)

	srv = rpcServer(t, `{"slot":1,"confirmations":null,"err":{"InstructionError":[0,"Custom"]},"confirmationStatus":"processed"}`)
	status, err = NewClient("k", "", srv.URL).Confirm(context.Background(), sig)
	assert.Error(t, err)
	assert.Equal(t, "error", status)
}

func TestClient_ConfirmWithoutRPC(t *testing.T) {
	_, err := NewClient("k", "", "").Confirm(context.Background(), solana.Signature{}.String())
	assert.ErrorIs(t, err, ErrNoRPC)
}
