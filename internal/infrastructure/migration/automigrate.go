package migration

import (
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists the tables this service owns. Journals and profiles
// belong to other services and are only created for local development.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.ManuscriptModel{},
		&models.ManuscriptAuthorModel{},
		&models.ManuscriptReviewerModel{},
		&models.AuthorModel{},
		&models.ManuscriptEventModel{},
		&models.ReviewerAssignmentModel{},
		&models.LedgerAnchorModel{},
	}
}

// DirectoryModels are the read-only tables of neighbouring services.
func DirectoryModels() []interface{} {
	return []interface{}{
		&models.JournalModel{},
		&models.ProfileModel{},
	}
}
