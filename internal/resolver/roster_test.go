package resolver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devscope/internal/models"
)

func usernames(entries []models.RosterEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Username)
	}
	return out
}

func TestParseRosterText(t *testing.T) {
	text := strings.Join([]string{
		"Community moderators",
		"Mod",
		"bob",
		"web3 builder and dev",
		"alice",
		"Admin",
		"gm gm everyone",
		"@carol",
		"followers 10",
		"@dave",
		"Admin",
		"frank",
		"random words here",
	}, "\n")

	entries := ParseRosterText(text)
	require.Equal(t, []string{"alice", "dave", "frank", "bob", "carol"}, usernames(entries))

	byName := map[string]models.RosterEntry{}
	for _, e := range entries {
		byName[e.Username] = e
	}
	assert.Equal(t, models.BadgeAdmin, byName["alice"].Badge)
	assert.Equal(t, "username_near_admin", byName["alice"].Pattern)
	assert.Equal(t, models.BadgeMod, byName["bob"].Badge)
	assert.Equal(t, "username_after_mod", byName["bob"].Pattern)
	assert.Equal(t, models.BadgeMember, byName["carol"].Badge)
	assert.Equal(t, "@username_format", byName["carol"].Pattern)
	assert.Equal(t, models.BadgeAdmin, byName["dave"].Badge)
	assert.Equal(t, "username_after_admin", byName["frank"].Pattern)
}

func TestParseRosterText_BareNamesNeedMarker(t *testing.T) {
	assert.Empty(t, ParseRosterText("lonely\nsome text\nanother one"))
	assert.Empty(t, ParseRosterText(""))
}

func TestParseRosterText_WhitespaceTrimmed(t *testing.T) {
	entries := ParseRosterText("  zed  \n\tMod\t")
	require.Len(t, entries, 1)
	assert.Equal(t, "zed", entries[0].Username)
	assert.Equal(t, models.BadgeMod, entries[0].Badge)
	assert.Equal(t, "username_near_mod", entries[0].Pattern)
}

const rosterHTML = `
<div data-testid="primaryColumn">
  <div data-testid="UserCell"><a href="/plainuser">Plain</a></div>
  <div data-testid="UserCell"><a href="/helper/">Helper</a><div><span>Mod</span></div></div>
  <div data-testid="UserCell"><a href="/BossDev">Boss</a><span> Admin </span></div>
  <div data-testid="UserCell"><span>no link</span></div>
</div>`

func TestParseRosterHTML(t *testing.T) {
	entries, err := ParseRosterHTML(rosterHTML)
	require.NoError(t, err)
	require.Equal(t, []string{"BossDev", "helper", "plainuser"}, usernames(entries))
	assert.Equal(t, models.BadgeAdmin, entries[0].Badge)
	assert.Equal(t, models.BadgeMod, entries[1].Badge)
	assert.Equal(t, models.BadgeMember, entries[2].Badge)
	assert.Equal(t, sourceDOM, entries[0].Source)
}

func TestParseRoster_TextBeforeHTML(t *testing.T) {
	entries, err := ParseRoster(models.RosterPage{Text: "textadmin\nAdmin", HTML: rosterHTML})
	require.NoError(t, err)
	assert.Equal(t, []string{"textadmin"}, usernames(entries))

	entries, err = ParseRoster(models.RosterPage{Text: "nothing useful here", HTML: rosterHTML})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestNormalizeRoster_FirstWinsStableOrder(t *testing.T) {
	in := []models.RosterEntry{
		{Username: "m1", Badge: models.BadgeMember},
		{Username: "x", Badge: models.BadgeMod},
		{Username: "a1", Badge: models.BadgeAdmin},
		{Username: "x", Badge: models.BadgeAdmin},
		{Username: "a2", Badge: models.BadgeAdmin},
	}
	out := normalizeRoster(in)
	assert.Equal(t, []string{"a1", "a2", "x", "m1"}, usernames(out))
	assert.Equal(t, models.BadgeMod, out[2].Badge)
}
