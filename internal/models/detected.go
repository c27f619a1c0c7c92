package models

import (
	"time"

	"devscope/pkg/curve"
)

// IdentityKind classifies the social identity attached to a token.
type IdentityKind string

const (
	IdentityNone       IdentityKind = ""
	IdentityIndividual IdentityKind = "individual"
	IdentityCommunity  IdentityKind = "community"
)

// Identity is the social identity extracted from a token's metadata.
type Identity struct {
	Kind        IdentityKind `json:"type,omitempty"`
	Handle      string       `json:"handle,omitempty"`
	CommunityID string       `json:"id,omitempty"`
	SourceText  string       `json:"originalUrl,omitempty"`
}

// Admin returns the identifier used for allowlist matching.
func (i Identity) Admin() string {
	switch i.Kind {
	case IdentityIndividual:
		return i.Handle
	case IdentityCommunity:
		return i.CommunityID
	}
	return ""
}

// MatchType is the classification outcome of a detected token.
type MatchType string

const (
	MatchPrimaryAdmin    MatchType = "primary_admin"
	MatchSecondaryAdmin  MatchType = "secondary_admin"
	MatchSnipeAll        MatchType = "snipe_all"
	MatchNoFilters       MatchType = "no_filters"
	MatchCommunityReused MatchType = "community_reused"
	MatchNone            MatchType = "no_match"
)

// Badge is the role a user holds in a community roster.
type Badge string

const (
	BadgeAdmin     Badge = "Admin"
	BadgeMod       Badge = "Mod"
	BadgeMember    Badge = "Member"
	BadgeCommunity Badge = "Community"
)

// RosterEntry is one moderator/admin found on a community page.
type RosterEntry struct {
	Username string `json:"username"`
	Badge    Badge  `json:"badgeType"`
	Source   string `json:"source,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
}

// DetectedResult is a classified token as kept in the detected cache and
// broadcast to subscribers.
type DetectedResult struct {
	ID                    string    `json:"id"`
	TokenAddress          string    `json:"tokenAddress"`
	Platform              string    `json:"platform"`
	CreatorWallet         string    `json:"creatorWallet"`
	Name                  string    `json:"name"`
	Symbol                string    `json:"symbol"`
	Description           string    `json:"description,omitempty"`
	URI                   string    `json:"uri,omitempty"`
	Website               string    `json:"website,omitempty"`
	Pool                  string    `json:"pool"`
	Signature             string    `json:"signature,omitempty"`
	MarketCapSol          float64   `json:"marketCapSol"`
	SolAmount             float64   `json:"solAmount"`
	InitialBuy            float64   `json:"initialBuy"`
	BondingCurveKey       string    `json:"bondingCurveKey,omitempty"`
	VTokensInBondingCurve float64   `json:"vTokensInBondingCurve"`
	VSolInBondingCurve    float64   `json:"vSolInBondingCurve"`
	SolInPool             float64   `json:"solInPool,omitempty"`
	TokensInPool          float64   `json:"tokensInPool,omitempty"`
	NewTokenBalance       float64   `json:"newTokenBalance,omitempty"`
	PriceSol              float64   `json:"priceSol,omitempty"`

	// BuyEstimate is set when the token will be bought on its bonding curve.
	BuyEstimate *curve.Quote `json:"buyEstimate,omitempty"`

	TwitterType        IdentityKind `json:"twitterType,omitempty"`
	TwitterCommunityID string       `json:"twitterCommunityId,omitempty"`
	TwitterHandle      string       `json:"twitterHandle,omitempty"`
	TwitterAdmin       string       `json:"twitterAdmin,omitempty"`
	TwitterURL         string       `json:"twitterUrl,omitempty"`

	MatchType       MatchType     `json:"matchType"`
	MatchedEntity   string        `json:"matchedEntity"`
	DetectionReason string        `json:"detectionReason"`
	Config          *AdminEntry   `json:"config,omitempty"`
	CommunityAdmins []RosterEntry `json:"communityAdmins,omitempty"`
	MatchedAdmin    *RosterEntry  `json:"matchedAdmin,omitempty"`
	Blocked         bool          `json:"blocked,omitempty"`
	BlockReason     string        `json:"blockReason,omitempty"`
	DetectedAt      time.Time     `json:"detectedAt"`
}

// RosterPage is a rendered community moderators page.
type RosterPage struct {
	Text string
	HTML string
}
