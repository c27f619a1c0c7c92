// Package curve estimates trades against a constant product bonding curve.
package curve

import "errors"

// DefaultFeeRate is the launchpad fee taken from the SOL side of a buy.
const DefaultFeeRate = 0.01

// ErrEmptyReserves is returned when either virtual reserve is not positive.
var ErrEmptyReserves = errors.New("bonding curve reserves must be positive")

// Quote is the expected outcome of a buy.
type Quote struct {
	TokensOut   float64 `json:"tokensOut"`
	PriceBefore float64 `json:"priceBefore"`
	PriceAfter  float64 `json:"priceAfter"`
	PriceImpact float64 `json:"priceImpact"` // fractional price change caused by the buy
}

// Price returns the spot price in SOL per token.
func Price(vSol, vTokens float64) float64 {
	if vSol <= 0 || vTokens <= 0 {
		return 0
	}
	return vSol / vTokens
}

// EstimateBuy simulates spending solIn on the curve after fees.
func EstimateBuy(solIn, vSol, vTokens, feeRate float64) (Quote, error) {
	if vSol <= 0 || vTokens <= 0 {
		return Quote{}, ErrEmptyReserves
	}
	if solIn <= 0 {
		return Quote{}, errors.New("buy amount must be positive")
	}

	before := vSol / vTokens
	k := vSol * vTokens
	newSol := vSol + solIn*(1-feeRate)
	newTokens := k / newSol
	after := newSol / newTokens

	return Quote{
		TokensOut:   vTokens - newTokens,
		PriceBefore: before,
		PriceAfter:  after,
		PriceImpact: (after - before) / before,
	}, nil
}
