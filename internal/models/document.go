package models

import (
	"time"
)

// Document is a keyed JSON record inside a named collection. It backs the
// admin lists and the used-community ledger.
type Document struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	Collection string    `gorm:"column:collection;size:64;not null;uniqueIndex:idx_documents_collection_key" json:"collection"`
	Key        string    `gorm:"column:doc_key;size:128;not null;uniqueIndex:idx_documents_collection_key" json:"key"`
	Value      JSONMap   `gorm:"column:value;type:jsonb" json:"value"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}

// DetectionLog represents a record in detection_logs table
type DetectionLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	EventType    string    `gorm:"column:event_type;size:64;not null;index" json:"event_type"`
	TokenAddress string    `gorm:"column:token_address;size:64;index" json:"token_address"`
	MatchType    string    `gorm:"column:match_type;size:32" json:"match_type"`
	Payload      JSONMap   `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (DetectionLog) TableName() string {
	return "detection_logs"
}
