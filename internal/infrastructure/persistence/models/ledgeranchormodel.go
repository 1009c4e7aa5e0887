package models

type LedgerAnchorModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	ManuscriptID  *uint  `gorm:"index"`
	Action        string `gorm:"size:32;not null"`
	Payload       []byte `gorm:"not null"`
	PayloadDigest string `gorm:"size:64;not null;index"`
	TxHash        string `gorm:"size:66;not null;default:'';index"`
	Status        string `gorm:"size:20;not null;index:idx_anchors_status_updated,priority:1"`
	Attempts      int    `gorm:"not null;default:0"`
	LastError     string `gorm:"size:500;not null;default:''"`
	BlockNumber   uint64 `gorm:"not null;default:0"`
	GasUsed       uint64 `gorm:"not null;default:0"`
	TxIndex       uint   `gorm:"not null;default:0"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt     int64  `gorm:"autoUpdateTime:milli;not null;index:idx_anchors_status_updated,priority:2"`
}

func (LedgerAnchorModel) TableName() string {
	return "ledger_anchors"
}
