package http

import (
	"gorm.io/gorm"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/infrastructure/repository"
	"github.com/openpublisher/openpublisher/internal/shared/db"
)

// repositories holds all repository instances used by the application.
type repositories struct {
	manuscriptRepo manuscript.ManuscriptRepository
	authorRepo     manuscript.AuthorRepository
	eventRepo      manuscript.EventRepository
	assignmentRepo manuscript.AssignmentRepository
	anchorRepo     manuscript.AnchorRepository
	journals       manuscript.JournalDirectory
	profiles       manuscript.ProfileDirectory
	txManager      db.TransactionRunner
}

func newRepositories(gdb *gorm.DB) *repositories {
	return &repositories{
		manuscriptRepo: repository.NewManuscriptRepository(gdb),
		authorRepo:     repository.NewAuthorRepository(gdb),
		eventRepo:      repository.NewManuscriptEventRepository(gdb),
		assignmentRepo: repository.NewReviewerAssignmentRepository(gdb),
		anchorRepo:     repository.NewLedgerAnchorRepository(gdb),
		journals:       repository.NewJournalDirectory(gdb),
		profiles:       repository.NewProfileDirectory(gdb),
		txManager:      db.NewTransactionManager(gdb),
	}
}
