package models

import "time"

// AdminEntry is one row of an allowlist. Address holds a wallet address,
// a social handle or a community id.
type AdminEntry struct {
	ID                string    `json:"id"`
	Address           string    `json:"address"`
	Amount            float64   `json:"amount"`
	Fees              float64   `json:"fees"` // slippage percent sent with the trade
	MevProtection     bool      `json:"mevProtection"`
	SoundNotification string    `json:"soundNotification,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// SnipeConfig carries the trade parameters for a single buy.
type SnipeConfig struct {
	Amount            float64 `json:"amount"`
	Fees              float64 `json:"fees"`
	MevProtection     bool    `json:"mevProtection"`
	SoundNotification string  `json:"soundNotification,omitempty"`
}

// SnipeConfig returns the trade parameters of the entry.
func (e AdminEntry) SnipeConfig() SnipeConfig {
	return SnipeConfig{
		Amount:            e.Amount,
		Fees:              e.Fees,
		MevProtection:     e.MevProtection,
		SoundNotification: e.SoundNotification,
	}
}
