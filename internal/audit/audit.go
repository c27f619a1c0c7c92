// Package audit persists mirrored broadcast events as detection logs.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"

	"devscope/internal/models"
)

var ErrInvalidPayload = errors.New("invalid event payload")

// FromPayload builds a detection log row from an encoded broadcast event.
// Token address and match type are taken from the event data, or from its
// tokenData for popup events.
func FromPayload(payload []byte) (models.DetectionLog, error) {
	if !gjson.ValidBytes(payload) {
		return models.DetectionLog{}, ErrInvalidPayload
	}
	ev := gjson.ParseBytes(payload)
	typ := ev.Get("type").String()
	if typ == "" {
		return models.DetectionLog{}, fmt.Errorf("%w: missing type", ErrInvalidPayload)
	}

	data := ev.Get("data")
	row := models.DetectionLog{
		EventType:    typ,
		TokenAddress: firstString(data, "tokenAddress", "tokenData.tokenAddress"),
		MatchType:    firstString(data, "matchType", "tokenData.matchType"),
	}
	if data.IsObject() {
		var p models.JSONMap
		if err := json.Unmarshal([]byte(data.Raw), &p); err == nil {
			row.Payload = p
		}
	}
	return row, nil
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// Writer stores detection logs.
type Writer struct {
	db *gorm.DB
}

func NewWriter(db *gorm.DB) *Writer {
	return &Writer{db: db}
}

// Handle stores one mirrored event. Malformed payloads are logged and
// dropped so they are not redelivered.
func (w *Writer) Handle(payload []byte) error {
	row, err := FromPayload(payload)
	if err != nil {
		log.WithError(err).Warn("Dropping malformed event")
		return nil
	}
	if err := w.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to store detection log: %w", err)
	}
	return nil
}
