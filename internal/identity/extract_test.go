package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"devscope/internal/models"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   models.IdentityKind
		handle string
		id     string
	}{
		{"community x.com", "https://x.com/i/communities/1234567890", models.IdentityCommunity, "", "1234567890"},
		{"community twitter no scheme", "twitter.com/i/communities/42", models.IdentityCommunity, "", "42"},
		{"community upper case", "HTTPS://WWW.X.COM/i/communities/99/about", models.IdentityCommunity, "", "99"},
		{"profile", "https://twitter.com/Rainmaker1973", models.IdentityIndividual, "rainmaker1973", ""},
		{"profile with status path", "https://x.com/DevGuy/status/123", models.IdentityIndividual, "devguy", ""},
		{"communities path without digits", "https://x.com/i/communities/abc", models.IdentityNone, "", ""},
		{"at handle", "@CryptoMajin", models.IdentityIndividual, "cryptomajin", ""},
		{"at handle with padding", "  @ Someone ", models.IdentityIndividual, "someone", ""},
		{"bare username", "moon_cat", models.IdentityIndividual, "moon_cat", ""},
		{"bare username too long", "abcdefghijklmnop", models.IdentityNone, "", ""},
		{"bare short word", "hello", models.IdentityIndividual, "hello", ""},
		{"sentence", "just a token", models.IdentityNone, "", ""},
		{"other site", "https://example.com/foo", models.IdentityNone, "", ""},
		{"empty", "   ", models.IdentityNone, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.input)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.handle, got.Handle)
			assert.Equal(t, tt.id, got.CommunityID)
		})
	}
}

func TestExtract_CommunityBeatsProfileInSameText(t *testing.T) {
	got := Extract("follow https://x.com/someone and https://x.com/i/communities/555")
	assert.Equal(t, models.IdentityCommunity, got.Kind)
	assert.Equal(t, "555", got.CommunityID)
}

func TestExtract_ProfileSkipsCommunitiesSegment(t *testing.T) {
	got := Extract("x.com/i/communities/ then twitter.com/RealDev")
	assert.Equal(t, models.IdentityIndividual, got.Kind)
	assert.Equal(t, "realdev", got.Handle)
}
