package models

import "gorm.io/datatypes"

// ManuscriptEventModel rows are inserted once and never updated.
type ManuscriptEventModel struct {
	ID           uint           `gorm:"primaryKey"`
	ManuscriptID uint           `gorm:"not null;index:idx_events_manuscript_time,priority:1"`
	EventType    string         `gorm:"size:32;not null;index"`
	ActorID      *string        `gorm:"size:64;index"`
	Description  string         `gorm:"type:text"`
	TxHash       string         `gorm:"size:66;not null;default:'';index"`
	AnchorID     *string        `gorm:"size:36;index"`
	Metadata     datatypes.JSON `gorm:"type:json"`
	Timestamp    int64          `gorm:"not null;index:idx_events_manuscript_time,priority:2"`
}

func (ManuscriptEventModel) TableName() string {
	return "manuscript_events"
}
