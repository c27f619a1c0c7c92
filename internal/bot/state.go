// Package bot owns the runtime state of the sniper and the pipeline that
// classifies every new token.
package bot

import (
	"errors"
	"sync"

	"devscope/internal/models"
)

// Token page destinations.
const (
	DestinationNeoBullx = "neo_bullx"
	DestinationAxiom    = "axiom"
)

var (
	// ErrNotRunning is returned by operations that need a started bot.
	ErrNotRunning = errors.New("bot is not running")

	// ErrAlreadyRunning is returned when starting a started bot.
	ErrAlreadyRunning = errors.New("bot is already running")

	// ErrNoPrivateKey is returned when starting without a trading key.
	ErrNoPrivateKey = errors.New("private key not set")
)

// Settings is the operator configuration read on every event.
type Settings struct {
	PrivateKey           string             `json:"privateKey"`
	TokenPageDestination string             `json:"tokenPageDestination"`
	EnableAdminFilter    bool               `json:"enableAdminFilter"`
	EnableCommunityReuse bool               `json:"enableCommunityReuse"`
	SnipeAllTokens       bool               `json:"snipeAllTokens"`
	DetectionOnlyMode    bool               `json:"detectionOnlyMode"`
	GlobalSnipeSettings  models.SnipeConfig `json:"globalSnipeSettings"`
}

// FilterSettings is the subset of Settings that drives classification.
type FilterSettings struct {
	EnableAdminFilter    bool `json:"enableAdminFilter"`
	EnableCommunityReuse bool `json:"enableCommunityReuse"`
	SnipeAllTokens       bool `json:"snipeAllTokens"`
	DetectionOnlyMode    bool `json:"detectionOnlyMode"`
}

// FilterUpdate changes only the fields that are set.
type FilterUpdate struct {
	EnableAdminFilter    *bool `json:"enableAdminFilter"`
	EnableCommunityReuse *bool `json:"enableCommunityReuse"`
	SnipeAllTokens       *bool `json:"snipeAllTokens"`
	DetectionOnlyMode    *bool `json:"detectionOnlyMode"`
}

// SnipeUpdate changes only the global snipe fields that are set.
type SnipeUpdate struct {
	Amount            *float64 `json:"amount"`
	Fees              *float64 `json:"fees"`
	MevProtection     *bool    `json:"mevProtection"`
	SoundNotification *string  `json:"soundNotification"`
}

// DefaultSettings returns the settings of a fresh process.
func DefaultSettings() Settings {
	return Settings{
		TokenPageDestination: DestinationNeoBullx,
		EnableAdminFilter:    true,
		EnableCommunityReuse: true,
		SnipeAllTokens:       false,
		DetectionOnlyMode:    true,
		GlobalSnipeSettings: models.SnipeConfig{
			Amount:            0.01,
			Fees:              10,
			MevProtection:     true,
			SoundNotification: "default.wav",
		},
	}
}

// State is the single owned runtime state shared by the dispatcher and the
// HTTP handlers.
type State struct {
	mu       sync.RWMutex
	running  bool
	settings Settings
}

// NewState creates a stopped bot with default settings.
func NewState() *State {
	return &State{settings: DefaultSettings()}
}

// Running reports whether the bot is started.
func (s *State) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Start marks the bot running. It needs a private key.
func (s *State) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	if s.settings.PrivateKey == "" {
		return ErrNoPrivateKey
	}
	s.running = true
	return nil
}

// Stop marks the bot stopped. It reports whether it was running.
func (s *State) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.running
	s.running = false
	return was
}

// Settings returns a copy of the current settings.
func (s *State) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// PublicSettings returns the settings with the private key masked.
func (s *State) PublicSettings() Settings {
	out := s.Settings()
	if out.PrivateKey != "" {
		out.PrivateKey = "********"
	}
	return out
}

// Filters returns the classification toggles.
func (s *State) Filters() FilterSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterSettings{
		EnableAdminFilter:    s.settings.EnableAdminFilter,
		EnableCommunityReuse: s.settings.EnableCommunityReuse,
		SnipeAllTokens:       s.settings.SnipeAllTokens,
		DetectionOnlyMode:    s.settings.DetectionOnlyMode,
	}
}

// GlobalSnipe returns the trade parameters used for snipe-all and manual
// snipes.
func (s *State) GlobalSnipe() models.SnipeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.GlobalSnipeSettings
}

// SetPrivateKey stores an already validated trading key.
func (s *State) SetPrivateKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.PrivateKey = key
}

// SetTokenPageDestination selects where snipe success links point.
func (s *State) SetTokenPageDestination(dest string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.TokenPageDestination = dest
}

// UpdateFilters applies a partial filter update and returns the result.
func (s *State) UpdateFilters(u FilterUpdate) FilterSettings {
	s.mu.Lock()
	if u.EnableAdminFilter != nil {
		s.settings.EnableAdminFilter = *u.EnableAdminFilter
	}
	if u.EnableCommunityReuse != nil {
		s.settings.EnableCommunityReuse = *u.EnableCommunityReuse
	}
	if u.SnipeAllTokens != nil {
		s.settings.SnipeAllTokens = *u.SnipeAllTokens
	}
	if u.DetectionOnlyMode != nil {
		s.settings.DetectionOnlyMode = *u.DetectionOnlyMode
	}
	s.mu.Unlock()
	return s.Filters()
}

// UpdateGlobalSnipe applies a partial update. Zero amounts and fees are
// ignored.
func (s *State) UpdateGlobalSnipe(u SnipeUpdate) models.SnipeConfig {
	s.mu.Lock()
	g := &s.settings.GlobalSnipeSettings
	if u.Amount != nil && *u.Amount > 0 {
		g.Amount = *u.Amount
	}
	if u.Fees != nil && *u.Fees > 0 {
		g.Fees = *u.Fees
	}
	if u.MevProtection != nil {
		g.MevProtection = *u.MevProtection
	}
	if u.SoundNotification != nil && *u.SoundNotification != "" {
		g.SoundNotification = *u.SoundNotification
	}
	s.mu.Unlock()
	return s.GlobalSnipe()
}

// Explain describes what the current filters will do.
func (f FilterSettings) Explain() string {
	switch {
	case f.SnipeAllTokens:
		return "Will detect and snipe ALL new tokens (all other filters bypassed)"
	case f.EnableAdminFilter:
		return "Will detect tokens from wallet addresses or Twitter admins in your Primary/Secondary Admin lists"
	}
	return "Will detect ALL tokens (no filtering applied)"
}

// Warnings lists the risky combinations that are active.
func (f FilterSettings) Warnings() []string {
	warnings := []string{}
	if f.SnipeAllTokens {
		warnings = append(warnings, "Snipe All Tokens mode is ACTIVE")
	}
	if !f.DetectionOnlyMode {
		warnings = append(warnings, "Detection Only mode is OFF - real sniping enabled")
	}
	if f.SnipeAllTokens && !f.DetectionOnlyMode {
		warnings = append(warnings, "DANGER: Will snipe ALL tokens automatically!")
	}
	return warnings
}
