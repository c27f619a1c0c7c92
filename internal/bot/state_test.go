package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_StartNeedsKey(t *testing.T) {
	s := NewState()
	assert.ErrorIs(t, s.Start(), ErrNoPrivateKey)

	s.SetPrivateKey("secret")
	require.NoError(t, s.Start())
	assert.True(t, s.Running())
	assert.ErrorIs(t, s.Start(), ErrAlreadyRunning)

	assert.True(t, s.Stop())
	assert.False(t, s.Stop())
}

func TestState_PublicSettingsMasksKey(t *testing.T) {
	s := NewState()
	s.SetPrivateKey("secret")
	assert.Equal(t, "********", s.PublicSettings().PrivateKey)
	assert.Equal(t, "secret", s.Settings().PrivateKey)
}

func TestState_PartialUpdates(t *testing.T) {
	s := NewState()
	off := false
	f := s.UpdateFilters(FilterUpdate{DetectionOnlyMode: &off})
	assert.True(t, f.EnableAdminFilter)
	assert.True(t, f.EnableCommunityReuse)
	assert.False(t, f.DetectionOnlyMode)

	amount, zero := 0.5, 0.0
	sound := "alert.wav"
	g := s.UpdateGlobalSnipe(SnipeUpdate{Amount: &amount, Fees: &zero, SoundNotification: &sound})
	assert.Equal(t, 0.5, g.Amount)
	assert.Equal(t, 10.0, g.Fees)
	assert.True(t, g.MevProtection)
	assert.Equal(t, "alert.wav", g.SoundNotification)
}

func TestFilterSettings_ExplainAndWarnings(t *testing.T) {
	f := FilterSettings{SnipeAllTokens: true}
	assert.Contains(t, f.Explain(), "ALL new tokens")
	assert.Len(t, f.Warnings(), 3)

	f = FilterSettings{EnableAdminFilter: true, DetectionOnlyMode: true}
	assert.Contains(t, f.Explain(), "Primary/Secondary")
	assert.Empty(t, f.Warnings())

	f = FilterSettings{DetectionOnlyMode: true}
	assert.Equal(t, "Will detect ALL tokens (no filtering applied)", f.Explain())
}
