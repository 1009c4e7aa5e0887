package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/mappers"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
	"github.com/openpublisher/openpublisher/internal/shared/db"
)

type AuthorRepository struct {
	db     *gorm.DB
	mapper mappers.ManuscriptMapper
}

func NewAuthorRepository(db *gorm.DB) *AuthorRepository {
	return &AuthorRepository{
		db:     db,
		mapper: mappers.NewManuscriptMapper(),
	}
}

func (r *AuthorRepository) GetByEmail(ctx context.Context, email string) (*manuscript.Author, error) {
	var model models.AuthorModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return r.mapper.AuthorToDomain(&model, false), nil
}

func (r *AuthorRepository) Create(ctx context.Context, a *manuscript.Author) error {
	model := r.mapper.AuthorToModel(a)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to create author: %w", err)
	}
	return a.SetID(model.ID)
}
