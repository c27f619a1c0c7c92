package resolver

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"devscope/internal/models"
)

const (
	sourceText = "text_analysis"
	sourceDOM  = "dom_scraping"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{1,15}$`)

func isUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

func markerBadge(line string) models.Badge {
	switch line {
	case "Admin":
		return models.BadgeAdmin
	case "Mod":
		return models.BadgeMod
	}
	return ""
}

// ParseRosterText extracts moderators from the visible text of a roster
// page. A line reading "Admin" or "Mod" claims the username on the line
// before it, else the one after. "@name" lines are always kept. Bare
// username lines are kept only when a marker sits within two lines.
func ParseRosterText(text string) []models.RosterEntry {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	var found []models.RosterEntry
	for i, line := range lines {
		var prev, next string
		if i > 0 {
			prev = lines[i-1]
		}
		if i+1 < len(lines) {
			next = lines[i+1]
		}

		if badge := markerBadge(line); badge != "" {
			pos := "before"
			username := ""
			if prev != "" && isUsername(prev) {
				username = prev
			} else if next != "" && isUsername(next) {
				username, pos = next, "after"
			}
			if username != "" {
				found = append(found, models.RosterEntry{
					Username: username,
					Badge:    badge,
					Source:   sourceText,
					Pattern:  "username_" + pos + "_" + strings.ToLower(string(badge)),
				})
			}
			continue
		}

		if strings.HasPrefix(line, "@") {
			username := line[1:]
			if !isUsername(username) {
				continue
			}
			badge := models.BadgeMember
			switch {
			case prev == "Admin" || next == "Admin":
				badge = models.BadgeAdmin
			case prev == "Mod" || next == "Mod":
				badge = models.BadgeMod
			}
			found = append(found, models.RosterEntry{
				Username: username,
				Badge:    badge,
				Source:   sourceText,
				Pattern:  "@username_format",
			})
			continue
		}

		if !isUsername(line) {
			continue
		}
		lo, hi := i-2, i+2
		if lo < 0 {
			lo = 0
		}
		if hi > len(lines)-1 {
			hi = len(lines) - 1
		}
		for j := lo; j <= hi; j++ {
			if j == i {
				continue
			}
			if badge := markerBadge(lines[j]); badge != "" {
				found = append(found, models.RosterEntry{
					Username: line,
					Badge:    badge,
					Source:   sourceText,
					Pattern:  "username_near_" + strings.ToLower(string(badge)),
				})
				break
			}
		}
	}

	return normalizeRoster(found)
}

// ParseRosterHTML reads the user cells of a roster page. Each cell with a
// profile link yields one entry, tagged by an exact "Admin" or "Mod" badge.
func ParseRosterHTML(html string) ([]models.RosterEntry, error) {
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var found []models.RosterEntry
	doc.Find(`div[data-testid="UserCell"]`).Each(func(_ int, cell *goquery.Selection) {
		href, ok := cell.Find(`a[href^="/"]`).First().Attr("href")
		if !ok {
			return
		}
		username := strings.TrimPrefix(href, "/")
		if i := strings.IndexAny(username, "/?#"); i >= 0 {
			username = username[:i]
		}
		if username == "" {
			return
		}

		badge := models.BadgeMember
		if hasExactText(cell, "Admin") {
			badge = models.BadgeAdmin
		} else if hasExactText(cell, "Mod") {
			badge = models.BadgeMod
		}
		found = append(found, models.RosterEntry{
			Username: username,
			Badge:    badge,
			Source:   sourceDOM,
			Pattern:  "html_element",
		})
	})

	return normalizeRoster(found), nil
}

// ParseRoster runs text analysis first and falls back to the HTML cells.
func ParseRoster(page models.RosterPage) ([]models.RosterEntry, error) {
	if entries := ParseRosterText(page.Text); len(entries) > 0 {
		return entries, nil
	}
	return ParseRosterHTML(page.HTML)
}

func hasExactText(sel *goquery.Selection, text string) bool {
	return sel.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == text
	}).Length() > 0
}

func badgeRank(b models.Badge) int {
	switch b {
	case models.BadgeAdmin:
		return 0
	case models.BadgeMod:
		return 1
	}
	return 2
}

// normalizeRoster collapses duplicate usernames, keeping the first, and
// orders Admin before Mod before Member.
func normalizeRoster(entries []models.RosterEntry) []models.RosterEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]models.RosterEntry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Username]; dup {
			continue
		}
		seen[e.Username] = struct{}{}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return badgeRank(out[i].Badge) < badgeRank(out[j].Badge)
	})
	return out
}
