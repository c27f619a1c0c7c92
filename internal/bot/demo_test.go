package bot

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"devscope/internal/identity"
	"devscope/internal/models"
)

func TestRandomAddresses(t *testing.T) {
	mint, err := base58.Decode(RandomMint())
	require.NoError(t, err)
	assert.Len(t, mint, 32)

	sig, err := base58.Decode(RandomSignature())
	require.NoError(t, err)
	assert.Len(t, sig, 64)
}

func TestBuildDemoToken_Community(t *testing.T) {
	ev, tmpl, err := BuildDemoToken(DemoOptions{TemplateIndex: 99, Community: "777", Wallet: "W1"})
	require.NoError(t, err)

	assert.Equal(t, DemoTemplates[0].Name, tmpl.Name)
	assert.Equal(t, "W1", ev.CreatorWallet())
	assert.Equal(t, "create", ev.TxType)
	assert.Equal(t, "https://x.com/i/communities/777", gjson.GetBytes(ev.Raw, "metadata.twitter").String())

	id := identity.FromToken(ev, nil)
	assert.Equal(t, models.IdentityCommunity, id.Kind)
	assert.Equal(t, "777", id.CommunityID)
}

func TestBuildDemoToken_PlatformOverride(t *testing.T) {
	ev, tmpl, err := BuildDemoToken(DemoOptions{TemplateIndex: 0, Platform: "pumpfun", Twitter: "@SomeDev"})
	require.NoError(t, err)

	assert.Equal(t, "pumpfun", tmpl.Platform)
	assert.Equal(t, "pump", ev.Pool)
	assert.NotEmpty(t, ev.BondingCurveKey)
	assert.Equal(t, "somedev", identity.FromToken(ev, nil).Handle)
}

func TestDemoFromEntry(t *testing.T) {
	wallet := DemoWallets[2]
	ev, _, err := DemoFromEntry(models.AdminEntry{Address: wallet}, 1)
	require.NoError(t, err)
	assert.Equal(t, wallet, ev.Creator)

	ev, _, err = DemoFromEntry(models.AdminEntry{Address: "CryptoDev"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "cryptodev", identity.FromToken(ev, nil).Handle)
	assert.Contains(t, DemoWallets, ev.Creator)
}
