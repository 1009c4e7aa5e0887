package models

type ReviewerAssignmentModel struct {
	ID           uint   `gorm:"primaryKey"`
	ManuscriptID uint   `gorm:"not null;index"`
	ReviewerID   string `gorm:"size:64;not null;index"`
	Status       string `gorm:"size:20;not null"`
	// ActiveKey is "<manuscript>:<reviewer>" while the assignment is active
	// and NULL afterwards; the unique index allows one active row per pair.
	ActiveKey   *string `gorm:"size:100;uniqueIndex"`
	AssignedAt  int64   `gorm:"not null"`
	DueDate     *int64
	CompletedAt *int64
	UpdatedAt   int64 `gorm:"autoUpdateTime:milli;not null"`
}

func (ReviewerAssignmentModel) TableName() string {
	return "reviewer_assignments"
}
