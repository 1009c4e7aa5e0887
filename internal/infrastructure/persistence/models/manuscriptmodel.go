package models

import "gorm.io/datatypes"

type ManuscriptModel struct {
	ID          uint           `gorm:"primaryKey"`
	Title       string         `gorm:"size:250;not null"`
	Abstract    string         `gorm:"size:500;not null;default:''"`
	Keywords    datatypes.JSON `gorm:"type:json"`
	JournalID   uint           `gorm:"not null;index:idx_manuscripts_journal_status,priority:1"`
	SubmittedBy string         `gorm:"size:64;not null;index"`
	Status      string         `gorm:"size:20;not null;index:idx_manuscripts_journal_status,priority:2"`
	SubmittedAt int64          `gorm:"not null;index"`
	UpdatedAt   int64          `gorm:"autoUpdateTime:milli;not null"`

	// Note: No foreign key constraints or associations.
	// Authors and reviewers are loaded explicitly by the repository.
}

func (ManuscriptModel) TableName() string {
	return "manuscripts"
}

// ManuscriptAuthorModel links a manuscript to a shared author record.
// IsPrimary belongs to the link: the same author can be primary on one
// manuscript and secondary on another.
type ManuscriptAuthorModel struct {
	ManuscriptID uint `gorm:"primaryKey;autoIncrement:false"`
	AuthorID     uint `gorm:"primaryKey;autoIncrement:false;index"`
	Position     int  `gorm:"not null;default:0"`
	IsPrimary    bool `gorm:"not null;default:false"`
}

func (ManuscriptAuthorModel) TableName() string {
	return "manuscript_authors"
}

type ManuscriptReviewerModel struct {
	ManuscriptID uint   `gorm:"primaryKey;autoIncrement:false"`
	ReviewerID   string `gorm:"primaryKey;size:64;index"`
	AddedAt      int64  `gorm:"not null"`
}

func (ManuscriptReviewerModel) TableName() string {
	return "manuscript_reviewers"
}
