package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devscope/internal/models"
)

func TestCandidateFields_Order(t *testing.T) {
	raw := []byte(`{
		"mint": "M1",
		"metadata": {"twitter": "https://x.com/first"},
		"twitter": "second",
		"social": {"twitter": "third"},
		"website": "https://site.example",
		"description": "token desc https://x.com/descuser",
		"socials": [{"type": "twitter", "url": "https://x.com/tokensocial"}, {"type": "telegram", "url": "t.me/x"}]
	}`)
	metadata := []byte(`{
		"twitter": "metatwitter",
		"social": {"twitter": "metasocial"},
		"website": "https://meta.example",
		"external_url": "https://ext.example",
		"external_link": "https://link.example",
		"description": "meta desc",
		"socials": [{"platform": "twitter", "handle": "@metahandle"}],
		"attributes": [{"trait_type": "Twitter", "value": "attrtwitter"}, {"trait_type": "color", "value": "red"}]
	}`)

	got := CandidateFields(raw, metadata)
	want := []string{
		"https://x.com/first",
		"second",
		"third",
		"https://site.example",
		"metatwitter",
		"metasocial",
		"https://meta.example",
		"https://ext.example",
		"https://link.example",
		"meta desc",
		"token desc https://x.com/descuser",
		"https://x.com/tokensocial",
		"@metahandle",
		"attrtwitter",
		"https://x.com/descuser",
	}
	assert.Equal(t, want, got)
}

func TestCandidateFields_IgnoresNonStrings(t *testing.T) {
	raw := []byte(`{"twitter": 12, "website": null, "metadata": {"twitter": {"url": "x"}}}`)
	assert.Empty(t, CandidateFields(raw, nil))
}

func TestFromToken_StructuredFieldWinsOverDescription(t *testing.T) {
	ev, err := models.ParseTokenEvent([]byte(`{
		"mint": "M1",
		"metadata": {"twitter": "https://x.com/i/communities/777"},
		"description": "by @someoneelse"
	}`))
	require.NoError(t, err)

	got := FromToken(ev, nil)
	assert.Equal(t, models.IdentityCommunity, got.Kind)
	assert.Equal(t, "777", got.CommunityID)
}

func TestFromToken_FallsBackToMetadataDescriptionLink(t *testing.T) {
	ev, err := models.ParseTokenEvent([]byte(`{"mint": "M2", "website": "https://example.com/a b"}`))
	require.NoError(t, err)

	got := FromToken(ev, []byte(`{"description": "Join us! twitter.com/i/communities/31337 now"}`))
	assert.Equal(t, models.IdentityCommunity, got.Kind)
	assert.Equal(t, "31337", got.CommunityID)
}

func TestFromToken_None(t *testing.T) {
	ev, err := models.ParseTokenEvent([]byte(`{"mint": "M3", "description": "nothing to see here"}`))
	require.NoError(t, err)

	got := FromToken(ev, []byte(`{}`))
	assert.Equal(t, models.IdentityNone, got.Kind)
}
