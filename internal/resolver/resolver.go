// Package resolver turns a community id into an allowlist match, first by
// the id itself and then by the community's moderator roster.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"devscope/internal/admins"
	"devscope/internal/models"
	"devscope/pkg/broadcast"
)

// Browser renders community pages from an authenticated session.
type Browser interface {
	IsSessionActive(ctx context.Context) bool
	FetchModeratorRoster(ctx context.Context, communityID string) (models.RosterPage, error)
}

// Directory is the allowlist view the resolver needs.
type Directory interface {
	Lookup(list admins.ListType, identifier string) *models.AdminEntry
	Addresses(list admins.ListType) []string
}

// Match methods reported with an outcome.
const (
	MethodCommunityID     = "community_id_direct"
	MethodRoster          = "community_admin_scraping"
	MethodRosterVariation = "community_admin_scraping_variation"
)

// Outcome is the terminal state of one resolution. When Matched is false
// the remaining fields other than Roster are empty.
type Outcome struct {
	Matched       bool
	List          admins.ListType
	Entry         *models.AdminEntry
	MatchedEntity string
	Reason        string
	MatchedAdmin  *models.RosterEntry
	Roster        []models.RosterEntry
	Method        string
}

// MatchType maps the outcome to a classification.
func (o Outcome) MatchType() models.MatchType {
	if !o.Matched {
		return models.MatchNone
	}
	if o.List == admins.Secondary {
		return models.MatchSecondaryAdmin
	}
	return models.MatchPrimaryAdmin
}

// Resolver runs the community fallback chain. Roster fetches are serialized
// because the browser holds a single page.
type Resolver struct {
	dir     Directory
	browser Browser
	pub     broadcast.Publisher

	fetchMu sync.Mutex
}

// New creates a resolver. browser may be nil, in which case only direct id
// matches resolve.
func New(dir Directory, browser Browser, pub broadcast.Publisher) *Resolver {
	return &Resolver{dir: dir, browser: browser, pub: pub}
}

func tierName(l admins.ListType) string {
	if l == admins.Secondary {
		return "secondary"
	}
	return "primary"
}

func tierTitle(l admins.ListType) string {
	if l == admins.Secondary {
		return "Secondary"
	}
	return "Primary"
}

func (r *Resolver) lists() (primary, secondary []string) {
	return r.dir.Addresses(admins.Primary), r.dir.Addresses(admins.Secondary)
}

func (r *Resolver) publish(eventType string, data map[string]interface{}) {
	if r.pub != nil {
		r.pub.Publish(broadcast.Event{Type: eventType, Data: data})
	}
}

// lookupBoth checks primary then secondary.
func (r *Resolver) lookupBoth(identifier string) (admins.ListType, *models.AdminEntry) {
	for _, list := range []admins.ListType{admins.Primary, admins.Secondary} {
		if entry := r.dir.Lookup(list, identifier); entry != nil {
			return list, entry
		}
	}
	return 0, nil
}

// Resolve walks the chain for one community. Collaborator failures end in
// an unmatched outcome.
func (r *Resolver) Resolve(ctx context.Context, communityID string) Outcome {
	logger := log.WithFields(log.Fields{"community_id": communityID})

	if list, entry := r.lookupBoth(communityID); entry != nil {
		primary, secondary := r.lists()
		logger.WithField("list", list.String()).Info("Community id found directly in admin list")
		r.publish("community_id_match_found", map[string]interface{}{
			"communityId":       communityID,
			"matchType":         tierName(list),
			"matchedAs":         MethodCommunityID,
			"yourPrimaryList":   primary,
			"yourSecondaryList": secondary,
		})
		return Outcome{
			Matched:       true,
			List:          list,
			Entry:         entry,
			MatchedEntity: "Community " + communityID,
			Reason:        fmt.Sprintf("%s Community ID: %s", tierTitle(list), communityID),
			MatchedAdmin:  &models.RosterEntry{Username: communityID, Badge: models.BadgeCommunity},
			Method:        MethodCommunityID,
		}
	}

	if r.browser == nil || !r.browser.IsSessionActive(ctx) {
		primary, secondary := r.lists()
		logger.Warn("Browser session not active, community admins cannot be resolved")
		r.publish("community_scraping_failed", map[string]interface{}{
			"communityId":       communityID,
			"reason":            "Twitter session not active - admin needs to login manually",
			"step":              "session_check",
			"fallbackUsed":      true,
			"yourPrimaryList":   primary,
			"yourSecondaryList": secondary,
			"needsManualLogin":  true,
		})
		return Outcome{}
	}

	roster, err := r.fetchRoster(ctx, communityID)
	if err != nil {
		logger.WithField("error", err.Error()).Error("Community roster fetch failed")
		r.publish("community_scraping_error", map[string]interface{}{
			"communityId":  communityID,
			"error":        err.Error(),
			"step":         "scraping",
			"fallbackUsed": true,
		})
		return Outcome{}
	}

	primary, secondary := r.lists()
	if len(roster) == 0 {
		logger.Info("No admins found in community")
		r.publish("community_scraping_failed", map[string]interface{}{
			"communityId":       communityID,
			"reason":            "No admins found in community",
			"step":              "scraping",
			"fallbackUsed":      true,
			"yourPrimaryList":   primary,
			"yourSecondaryList": secondary,
		})
		return Outcome{}
	}

	logger.WithField("admins", len(roster)).Info("Community admins scraped")
	r.publish("community_admins_scraped", map[string]interface{}{
		"communityId":       communityID,
		"admins":            roster,
		"totalAdmins":       len(roster),
		"scrapedAt":         time.Now().UTC().Format(time.RFC3339),
		"yourPrimaryList":   primary,
		"yourSecondaryList": secondary,
	})

	if out, ok := r.matchRoster(communityID, roster); ok {
		logger.WithFields(log.Fields{
			"list":     out.List.String(),
			"username": out.MatchedAdmin.Username,
			"matched":  out.MatchedEntity,
		}).Info("Community admin found in admin list")
		data := map[string]interface{}{
			"communityId":      communityID,
			"matchType":        tierName(out.List),
			"matchedAdmin":     out.MatchedAdmin,
			"matchedAs":        out.Method,
			"allScrapedAdmins": roster,
		}
		if out.Method == MethodRosterVariation {
			data["matchedVariation"] = out.MatchedEntity
		}
		r.publish("community_admin_match_found", data)
		return out
	}

	logger.Info("No community admins found in admin lists")
	r.publish("community_admins_no_match", map[string]interface{}{
		"communityId":        communityID,
		"scrapedAdmins":      roster,
		"yourPrimaryList":    primary,
		"yourSecondaryList":  secondary,
		"totalScrapedAdmins": len(roster),
	})
	return Outcome{Roster: roster}
}

func (r *Resolver) fetchRoster(ctx context.Context, communityID string) ([]models.RosterEntry, error) {
	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()

	page, err := r.browser.FetchModeratorRoster(ctx, communityID)
	if err != nil {
		return nil, err
	}
	return ParseRoster(page)
}

// matchRoster checks each roster entry in order, first by its raw username
// and then by its casing and @-prefix variations.
func (r *Resolver) matchRoster(communityID string, roster []models.RosterEntry) (Outcome, bool) {
	for i := range roster {
		admin := roster[i]

		if list, entry := r.lookupBoth(admin.Username); entry != nil {
			return Outcome{
				Matched:       true,
				List:          list,
				Entry:         entry,
				MatchedEntity: admin.Username,
				Reason: fmt.Sprintf("%s Community Admin: @%s (%s) from Community %s",
					tierTitle(list), admin.Username, admin.Badge, communityID),
				MatchedAdmin: &admin,
				Roster:       roster,
				Method:       MethodRoster,
			}, true
		}

		for _, variation := range usernameVariations(admin.Username) {
			if list, entry := r.lookupBoth(variation); entry != nil {
				return Outcome{
					Matched:       true,
					List:          list,
					Entry:         entry,
					MatchedEntity: variation,
					Reason: fmt.Sprintf("%s Community Admin: @%s (%s) from Community %s (matched as %s)",
						tierTitle(list), admin.Username, admin.Badge, communityID, variation),
					MatchedAdmin: &admin,
					Roster:       roster,
					Method:       MethodRosterVariation,
				}, true
			}
		}
	}
	return Outcome{}, false
}

func usernameVariations(u string) []string {
	lower := strings.ToLower(u)
	return []string{u, "@" + u, lower, "@" + lower}
}
