package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
	"github.com/openpublisher/openpublisher/internal/shared/db"
)

// JournalDirectory reads the journals table owned by the journal service.
type JournalDirectory struct {
	db *gorm.DB
}

func NewJournalDirectory(db *gorm.DB) *JournalDirectory {
	return &JournalDirectory{db: db}
}

func (d *JournalDirectory) Exists(ctx context.Context, journalID uint) (bool, error) {
	var count int64
	tx := db.GetTxFromContext(ctx, d.db)
	if err := tx.Model(&models.JournalModel{}).Where("id = ?", journalID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check journal: %w", err)
	}
	return count > 0, nil
}

// ProfileDirectory reads the profiles table owned by the accounts service.
type ProfileDirectory struct {
	db *gorm.DB
}

func NewProfileDirectory(db *gorm.DB) *ProfileDirectory {
	return &ProfileDirectory{db: db}
}

// GetByID returns nil, nil for an unknown profile.
func (d *ProfileDirectory) GetByID(ctx context.Context, profileID string) (*manuscript.Profile, error) {
	var model models.ProfileModel
	tx := db.GetTxFromContext(ctx, d.db)
	if err := tx.Where("id = ?", profileID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &manuscript.Profile{
		ID:        model.ID,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		Email:     model.Email,
	}, nil
}
