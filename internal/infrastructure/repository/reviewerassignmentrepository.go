package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/mappers"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
	"github.com/openpublisher/openpublisher/internal/shared/db"
	apperrors "github.com/openpublisher/openpublisher/internal/shared/errors"
)

type ReviewerAssignmentRepository struct {
	db     *gorm.DB
	mapper mappers.AssignmentMapper
}

func NewReviewerAssignmentRepository(db *gorm.DB) *ReviewerAssignmentRepository {
	return &ReviewerAssignmentRepository{
		db:     db,
		mapper: mappers.NewAssignmentMapper(),
	}
}

func (r *ReviewerAssignmentRepository) Create(ctx context.Context, a *manuscript.ReviewerAssignment) error {
	model := r.mapper.ToModel(a)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return manuscript.ErrReviewerAlreadyAssigned
		}
		return fmt.Errorf("failed to create reviewer assignment: %w", err)
	}
	return a.SetID(model.ID)
}

// Update only applies while the stored row still holds a status the new one
// can follow, so two requests racing on one assignment cannot both move it.
func (r *ReviewerAssignmentRepository) Update(ctx context.Context, a *manuscript.ReviewerAssignment) error {
	model := r.mapper.ToModel(a)
	tx := db.GetTxFromContext(ctx, r.db)

	prior := make([]string, 0, 3)
	for _, s := range a.Status().PriorStatuses() {
		prior = append(prior, s.String())
	}
	if len(prior) == 0 {
		return manuscript.ErrAssignmentNotActive
	}

	// Select writes the NULL active key and completion time explicitly.
	result := tx.Model(&models.ReviewerAssignmentModel{}).
		Where("id = ? AND status IN ?", model.ID, prior).
		Select("status", "active_key", "completed_at", "due_date").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update reviewer assignment: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.ReviewerAssignmentModel{}).Where("id = ?", model.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check reviewer assignment: %w", err)
	}
	if count == 0 {
		return manuscript.ErrAssignmentNotFound
	}
	return manuscript.ErrAssignmentNotActive
}

func (r *ReviewerAssignmentRepository) GetActive(ctx context.Context, manuscriptID uint, reviewerID string) (*manuscript.ReviewerAssignment, error) {
	var model models.ReviewerAssignmentModel
	tx := db.GetTxFromContext(ctx, r.db)

	err := tx.Where("active_key = ?", manuscript.ActiveAssignmentKey(manuscriptID, reviewerID)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *ReviewerAssignmentRepository) ListByManuscript(ctx context.Context, manuscriptID uint) ([]*manuscript.ReviewerAssignment, error) {
	var list []models.ReviewerAssignmentModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("manuscript_id = ?", manuscriptID).
		Order("assigned_at ASC").Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviewer assignments: %w", err)
	}

	result := make([]*manuscript.ReviewerAssignment, 0, len(list))
	for i := range list {
		a, err := r.mapper.ToDomain(&list[i])
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}
