package models

import (
	"encoding/json"
	"fmt"
)

// TokenEvent is a "new token created" message from an upstream feed.
type TokenEvent struct {
	Signature             string  `json:"signature,omitempty"`
	Mint                  string  `json:"mint"`
	TraderPublicKey       string  `json:"traderPublicKey,omitempty"`
	Creator               string  `json:"creator,omitempty"`
	TxType                string  `json:"txType,omitempty"`
	Name                  string  `json:"name,omitempty"`
	Symbol                string  `json:"symbol,omitempty"`
	Description           string  `json:"description,omitempty"`
	URI                   string  `json:"uri,omitempty"`
	Pool                  string  `json:"pool,omitempty"`
	InitialBuy            float64 `json:"initialBuy,omitempty"`
	SolAmount             float64 `json:"solAmount,omitempty"`
	MarketCapSol          float64 `json:"marketCapSol,omitempty"`
	BondingCurveKey       string  `json:"bondingCurveKey,omitempty"`
	VTokensInBondingCurve float64 `json:"vTokensInBondingCurve,omitempty"`
	VSolInBondingCurve    float64 `json:"vSolInBondingCurve,omitempty"`
	SolInPool             float64 `json:"solInPool,omitempty"`
	TokensInPool          float64 `json:"tokensInPool,omitempty"`
	NewTokenBalance       float64 `json:"newTokenBalance,omitempty"`

	// Raw keeps the full inbound document so social fields that have no
	// struct counterpart (metadata.twitter, socials[], ...) stay reachable.
	Raw json.RawMessage `json:"-"`
}

// ParseTokenEvent decodes a feed message and keeps its raw form.
func ParseTokenEvent(data []byte) (TokenEvent, error) {
	var ev TokenEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return TokenEvent{}, fmt.Errorf("decode token event: %w", err)
	}
	ev.Raw = append(json.RawMessage(nil), data...)
	return ev, nil
}

// CreatorWallet returns the creator address, falling back to the trader key.
func (e TokenEvent) CreatorWallet() string {
	if e.Creator != "" {
		return e.Creator
	}
	return e.TraderPublicKey
}
