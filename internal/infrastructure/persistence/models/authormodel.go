package models

type AuthorModel struct {
	ID          uint   `gorm:"primaryKey"`
	FirstName   string `gorm:"size:100;not null"`
	LastName    string `gorm:"size:100;not null"`
	Email       string `gorm:"uniqueIndex;size:255;not null"`
	Affiliation string `gorm:"size:255;not null;default:''"`
	CreatedAt   int64  `gorm:"autoCreateTime:milli;not null"`
}

func (AuthorModel) TableName() string {
	return "authors"
}
