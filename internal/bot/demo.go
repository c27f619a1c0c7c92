package bot

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	mrand "math/rand"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	log "github.com/sirupsen/logrus"

	"devscope/internal/models"
)

// DemoTemplate seeds a synthetic token.
type DemoTemplate struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	URI           string `json:"uri"`
	Pool          string `json:"pool"`
	Platform      string `json:"platform"`
	TwitterHandle string `json:"twitterHandle"`
}

var DemoTemplates = []DemoTemplate{
	{Name: "Macaroni Mouse", Symbol: "MACARONI", URI: "https://eu-dev.uxento.io/data/cmdvcbd2n00jghb190aiy0y8r", Pool: "bonk", Platform: "letsbonk", TwitterHandle: "Rainmaker1973"},
	{Name: "BuuCoin", Symbol: "MAJINBUU", URI: "https://ipfs.io/ipfs/QmTGkzD267qcG32NvyAhxgijxvhtsbRaPUx7WJMNHZDY35", Pool: "pump", Platform: "pumpfun", TwitterHandle: "CryptoMajin"},
	{Name: "Doge Supreme", Symbol: "DSUP", URI: "https://ipfs.io/ipfs/QmSampleDogeImage123", Pool: "pump", Platform: "pumpfun", TwitterHandle: "DogeSupremeTeam"},
	{Name: "Moon Cat", Symbol: "MCAT", URI: "https://ipfs.io/ipfs/QmSampleCatImage456", Pool: "bonk", Platform: "letsbonk", TwitterHandle: "MoonCatOfficial"},
}

var DemoWallets = []string{
	"HaSdFi2wKLTguxuh4PMBgZuAscbMGEF8XnMHgD5vUeGr",
	"HJdauMU7e8tmM7NFDjV9BSoVzZobVS88wnp3TDAfjuE",
	"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
	"5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1",
	"7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
}

// DemoOptions customises an injected token.
type DemoOptions struct {
	TemplateIndex int    `json:"templateIndex"`
	Wallet        string `json:"customWallet"`
	Twitter       string `json:"customTwitter"`
	Community     string `json:"customCommunity"`
	Platform      string `json:"platform"`
}

// DemoTemplateAt returns the template at i, or the first one when i is out
// of range.
func DemoTemplateAt(i int) DemoTemplate {
	if i < 0 || i >= len(DemoTemplates) {
		return DemoTemplates[0]
	}
	return DemoTemplates[i]
}

func randomBase58(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		for i := range buf {
			buf[i] = byte(mrand.Intn(256))
		}
	}
	return base58.Encode(buf)
}

// RandomMint returns a random 32-byte address in base58.
func RandomMint() string {
	return randomBase58(32)
}

// RandomSignature returns a random 64-byte signature in base58.
func RandomSignature() string {
	return randomBase58(64)
}

// demoDocument mirrors the feed message layout, including the nested
// metadata block the identity extractor reads.
type demoDocument struct {
	models.TokenEvent
	Metadata map[string]string `json:"metadata"`
}

// GenerateDemoToken builds a feed-shaped create event. Empty wallet and
// twitter pick a random demo wallet and the template handle. socialLink, when
// set, replaces the twitter link entirely.
func GenerateDemoToken(t DemoTemplate, wallet, twitter, socialLink string) (models.TokenEvent, error) {
	if wallet == "" {
		wallet = DemoWallets[mrand.Intn(len(DemoWallets))]
	}
	if twitter == "" {
		twitter = t.TwitterHandle
	}
	if socialLink == "" {
		socialLink = "https://twitter.com/" + strings.TrimPrefix(twitter, "@")
	}

	ev := models.TokenEvent{
		Signature:       RandomSignature(),
		Mint:            RandomMint(),
		TraderPublicKey: wallet,
		Creator:         wallet,
		TxType:          "create",
		Name:            t.Name,
		Symbol:          t.Symbol,
		URI:             t.URI,
		Pool:            t.Pool,
		SolAmount:       mrand.Float64()*5 + 0.01,
		MarketCapSol:    mrand.Float64()*50 + 10,
		InitialBuy:      mrand.Float64() * 100000000,
	}
	if t.Platform == "pumpfun" {
		ev.BondingCurveKey = RandomMint()
		ev.VTokensInBondingCurve = mrand.Float64()*1000000000 + 100000000
		ev.VSolInBondingCurve = mrand.Float64()*30 + 5
	} else {
		ev.SolInPool = mrand.Float64()*10 + 1
		ev.TokensInPool = mrand.Float64()*1000000000 + 100000000
		ev.NewTokenBalance = mrand.Float64() * 100000000
	}

	raw, err := json.Marshal(demoDocument{
		TokenEvent: ev,
		Metadata: map[string]string{
			"name":    t.Name,
			"symbol":  t.Symbol,
			"twitter": socialLink,
		},
	})
	if err != nil {
		return models.TokenEvent{}, fmt.Errorf("encode demo token: %w", err)
	}
	return models.ParseTokenEvent(raw)
}

// BuildDemoToken applies operator options to a template.
func BuildDemoToken(opts DemoOptions) (models.TokenEvent, DemoTemplate, error) {
	t := DemoTemplateAt(opts.TemplateIndex)
	if opts.Platform != "" {
		t.Platform = opts.Platform
		t.Pool = "bonk"
		if opts.Platform == "pumpfun" {
			t.Pool = "pump"
		}
	}

	link := ""
	switch {
	case opts.Community != "":
		link = "https://x.com/i/communities/" + opts.Community
	case opts.Twitter != "":
		link = "https://twitter.com/" + strings.TrimPrefix(opts.Twitter, "@")
	}

	ev, err := GenerateDemoToken(t, opts.Wallet, "", link)
	return ev, t, err
}

// DemoFromEntry builds a token that should match an allowlist entry. Entries
// holding a wallet address become the creator, anything else becomes the
// twitter handle.
func DemoFromEntry(entry models.AdminEntry, templateIndex int) (models.TokenEvent, DemoTemplate, error) {
	t := DemoTemplateAt(templateIndex)
	if _, err := solana.PublicKeyFromBase58(entry.Address); err == nil {
		ev, err := GenerateDemoToken(t, entry.Address, "", "")
		return ev, t, err
	}
	ev, err := GenerateDemoToken(t, "", entry.Address, "")
	return ev, t, err
}

// InjectBatch feeds count random demo tokens with delay between them. It
// stops early when the bot stops.
func (d *Dispatcher) InjectBatch(count int, delay time.Duration) {
	go func() {
		for i := 0; i < count; i++ {
			if i > 0 {
				time.Sleep(delay)
			}
			if !d.State.Running() {
				return
			}
			t := DemoTemplates[mrand.Intn(len(DemoTemplates))]
			ev, err := GenerateDemoToken(t, "", "", "")
			if err != nil {
				log.WithField("error", err.Error()).Error("Failed to generate demo token")
				continue
			}
			d.HandleToken(ev, t.Platform)
		}
	}()
}
