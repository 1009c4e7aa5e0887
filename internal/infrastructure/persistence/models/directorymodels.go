package models

// JournalModel and ProfileModel map tables owned by other services. This
// service only reads them and never migrates them in production.

type JournalModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255"`
}

func (JournalModel) TableName() string {
	return "journals"
}

type ProfileModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	FirstName string `gorm:"size:100"`
	LastName  string `gorm:"size:100"`
	Email     string `gorm:"size:255"`
}

func (ProfileModel) TableName() string {
	return "profiles"
}
