package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/mappers"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
	"github.com/openpublisher/openpublisher/internal/shared/db"
)

// ManuscriptEventRepository only inserts and reads; events are immutable.
type ManuscriptEventRepository struct {
	db     *gorm.DB
	mapper mappers.EventMapper
}

func NewManuscriptEventRepository(db *gorm.DB) *ManuscriptEventRepository {
	return &ManuscriptEventRepository{
		db:     db,
		mapper: mappers.NewEventMapper(),
	}
}

func (r *ManuscriptEventRepository) Create(ctx context.Context, e *manuscript.Event) error {
	model, err := r.mapper.ToModel(e)
	if err != nil {
		return err
	}
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to create manuscript event: %w", err)
	}
	return e.SetID(model.ID)
}

// ListByManuscript orders by timestamp and then id, both descending, so
// events recorded within the same millisecond keep insertion order reversed.
func (r *ManuscriptEventRepository) ListByManuscript(ctx context.Context, manuscriptID uint) ([]*manuscript.Event, error) {
	var list []models.ManuscriptEventModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("manuscript_id = ?", manuscriptID).
		Order("timestamp DESC").Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list manuscript events: %w", err)
	}
	return r.mapper.ToDomainList(list)
}
